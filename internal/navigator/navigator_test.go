package navigator

import (
	"errors"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/genricoloni/capview/internal/archive"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/resolver"
	"github.com/genricoloni/capview/internal/resources"
	"github.com/genricoloni/capview/internal/scratch"
	"github.com/genricoloni/capview/internal/testsupport"
	"go.uber.org/zap"
)

type env struct {
	dir          string
	scratch      *scratch.Space
	placeholders *resources.Placeholders
	resolver     *resolver.Resolver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()

	sp, err := scratch.New(zap.NewNop(), filepath.Join(root, "tmp"))
	if err != nil {
		t.Fatalf("failed to create scratch space: %v", err)
	}
	t.Cleanup(func() { _ = sp.Close() })

	ph, err := resources.Materialize(zap.NewNop(), filepath.Join(root, "resources"))
	if err != nil {
		t.Fatalf("failed to materialize resources: %v", err)
	}

	dir := filepath.Join(root, "media")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	return &env{
		dir:          dir,
		scratch:      sp,
		placeholders: ph,
		resolver:     resolver.NewResolver(zap.NewNop(), archive.NewZip(zap.NewNop()), sp, ph),
	}
}

func (e *env) file(t *testing.T, name string) string {
	t.Helper()
	return testsupport.WriteFile(t, filepath.Join(e.dir, name), []byte(name))
}

func (e *env) album(t *testing.T, name string, members ...string) string {
	t.Helper()
	m := make(map[string][]byte, len(members))
	for _, member := range members {
		m[member] = testsupport.PNG(t, 2, 2, color.White)
	}
	return testsupport.WriteZip(t, filepath.Join(e.dir, name), m)
}

func (e *env) navigator(t *testing.T, opts ...Option) *Navigator {
	t.Helper()
	entries, err := ListDir(e.dir)
	if err != nil {
		t.Fatalf("failed to list directory: %v", err)
	}
	return New(zap.NewNop(), entries, e.resolver, e.scratch, opts...)
}

func TestNavigator_EndToEnd(t *testing.T) {
	e := newEnv(t)
	e.file(t, "img1.jpg")
	e.file(t, "note.txt")
	testsupport.WriteZip(t, filepath.Join(e.dir, "bundle.zip"), map[string][]byte{
		"b.png": testsupport.PNG(t, 2, 2, color.White),
		"b.txt": []byte("caption"),
	})
	album := e.album(t, "album.zip", "m1.png", "m2.png", "m3.png")
	// Subdirectories are not entries
	if err := os.MkdirAll(filepath.Join(e.dir, "skipme"), 0755); err != nil {
		t.Fatal(err)
	}

	nav := e.navigator(t)

	var names []string
	for _, p := range nav.Entries() {
		names = append(names, filepath.Base(p))
	}
	if !reflect.DeepEqual(names, []string{"album.zip", "bundle.zip", "img1.jpg", "note.txt"}) {
		t.Fatalf("unexpected order: %v", names)
	}

	pair, err := nav.First()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if nav.Mode() != domain.InAlbum {
		t.Fatalf("expected album mode, got %s", nav.Mode())
	}
	if nav.AlbumLen() != 3 || nav.SubIndex() != 0 {
		t.Errorf("expected 3 members at sub-index 0, got %d at %d", nav.AlbumLen(), nav.SubIndex())
	}
	if nav.CurrentName() != album {
		t.Errorf("expected current %s, got %s", album, nav.CurrentName())
	}
	want := domain.CaptionPair{Media: filepath.Join(e.scratch.Dir(), "m1.png"), Caption: e.placeholders.Empty}
	if pair != want {
		t.Errorf("expected %+v, got %+v", want, pair)
	}
	if sub, ok := nav.CurrentSubName(); !ok || sub != "m1.png" {
		t.Errorf("expected sub name m1.png, got %q (%v)", sub, ok)
	}
}

func TestNavigator_SingleStepWrap(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a.jpg")
	e.file(t, "b.jpg")
	c := e.file(t, "c.jpg")

	nav := e.navigator(t)

	pair, err := nav.Prev()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Index() != 2 || pair.Media != c {
		t.Errorf("prev from 0: expected index 2 (%s), got %d (%s)", c, nav.Index(), pair.Media)
	}

	pair, err = nav.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Index() != 0 || pair.Media != a {
		t.Errorf("next from last: expected index 0 (%s), got %d (%s)", a, nav.Index(), pair.Media)
	}
}

func TestNavigator_SubNavigation(t *testing.T) {
	e := newEnv(t)
	e.album(t, "a.zip", "1.png", "2.png", "3.png")
	e.file(t, "b.jpg")

	nav := e.navigator(t)
	if _, err := nav.First(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pair, err := nav.PrevSub()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.SubIndex() != 2 || pair.Media != filepath.Join(e.scratch.Dir(), "3.png") {
		t.Errorf("prev-sub from 0: expected member 2, got %d (%s)", nav.SubIndex(), pair.Media)
	}
	if got := testsupport.ListDir(t, e.scratch.Dir()); !reflect.DeepEqual(got, []string{"3.png"}) {
		t.Errorf("scratch space should hold only the current member, got %v", got)
	}

	if _, err := nav.NextSub(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.SubIndex() != 0 {
		t.Errorf("next-sub from last: expected 0, got %d", nav.SubIndex())
	}

	// Leaving the album discards its state
	if _, err := nav.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Mode() != domain.Flat {
		t.Errorf("expected flat mode after top-level navigation, got %s", nav.Mode())
	}
	if _, ok := nav.CurrentSubName(); ok {
		t.Error("expected no sub name outside an album")
	}
	if _, err := nav.NextSub(); !errors.Is(err, domain.ErrNotInAlbum) {
		t.Errorf("expected ErrNotInAlbum, got %v", err)
	}
	if got := testsupport.ListDir(t, e.scratch.Dir()); len(got) != 0 {
		t.Errorf("scratch space should be empty on a plain entry, got %v", got)
	}

	// Re-entering restarts at member 0
	if _, err := nav.Prev(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Mode() != domain.InAlbum || nav.SubIndex() != 0 {
		t.Errorf("expected album at sub-index 0, got %s at %d", nav.Mode(), nav.SubIndex())
	}
}

func TestNavigator_Delete(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a.jpg")
	b := e.file(t, "b.jpg")
	c := e.file(t, "c.jpg")

	nav := e.navigator(t)
	if _, err := nav.ByName(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pair, err := nav.Delete()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(c); !os.IsNotExist(err) {
		t.Error("deleted entry should be removed from disk")
	}
	if !reflect.DeepEqual(nav.Entries(), []string{a, b}) {
		t.Errorf("expected [a b], got %v", nav.Entries())
	}
	if nav.Index() != 0 || pair.Media != a {
		t.Errorf("expected to land on a at index 0, got %d (%s)", nav.Index(), pair.Media)
	}
}

func TestNavigator_DeleteErrors(t *testing.T) {
	t.Run("Last remaining entry", func(t *testing.T) {
		e := newEnv(t)
		only := e.file(t, "only.jpg")
		nav := e.navigator(t)

		if _, err := nav.Delete(); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := os.Stat(only); err != nil {
			t.Errorf("refused deletion must leave the file in place: %v", err)
		}
	})

	t.Run("Removal failure", func(t *testing.T) {
		e := newEnv(t)
		a := e.file(t, "a.jpg")
		e.file(t, "b.jpg")
		nav := e.navigator(t)

		if err := os.Remove(a); err != nil {
			t.Fatal(err)
		}
		if _, err := nav.Delete(); !errors.Is(err, domain.ErrIO) {
			t.Fatalf("expected ErrIO, got %v", err)
		}
		if nav.Len() != 2 {
			t.Errorf("failed deletion must keep the list intact, got %d entries", nav.Len())
		}
	})
}

func TestNavigator_ByName(t *testing.T) {
	e := newEnv(t)
	e.file(t, "a.jpg")
	b := e.file(t, "b.jpg")

	nav := e.navigator(t)

	tests := []struct {
		name      string
		lookup    string
		wantIndex int
		wantErr   error
	}{
		{name: "Full path", lookup: b, wantIndex: 1},
		{name: "Base name", lookup: "b.jpg", wantIndex: 1},
		{name: "Missing", lookup: "zzz.jpg", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nav.ByName(tt.lookup)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if nav.Index() != tt.wantIndex {
				t.Errorf("expected index %d, got %d", tt.wantIndex, nav.Index())
			}
		})
	}
}

func TestNavigator_Random(t *testing.T) {
	e := newEnv(t)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		e.file(t, name)
	}

	nav := e.navigator(t, WithRand(rand.New(rand.NewPCG(1, 2))))
	for i := 0; i < 20; i++ {
		if _, err := nav.Random(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if nav.Index() < 0 || nav.Index() >= nav.Len() {
			t.Fatalf("random index out of range: %d", nav.Index())
		}
	}
}

func TestNavigator_EmptySequence(t *testing.T) {
	e := newEnv(t)
	nav := e.navigator(t)

	ops := map[string]func() (domain.CaptionPair, error){
		"first":   nav.First,
		"random":  nav.Random,
		"next":    nav.Next,
		"prev":    nav.Prev,
		"delete":  nav.Delete,
		"current": nav.Current,
	}
	for name, op := range ops {
		if _, err := op(); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
	if nav.CurrentName() != "" {
		t.Errorf("expected empty name, got %q", nav.CurrentName())
	}
}

func TestNavigator_CurrentReextractsMember(t *testing.T) {
	e := newEnv(t)
	e.album(t, "a.zip", "1.png", "2.png")
	nav := e.navigator(t)

	if _, err := nav.First(); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.NextSub(); err != nil {
		t.Fatal(err)
	}
	if err := e.scratch.Wipe(); err != nil {
		t.Fatal(err)
	}

	pair, err := nav.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(pair.Media); err != nil {
		t.Errorf("current member should be extracted again: %v", err)
	}
	if nav.SubIndex() != 1 {
		t.Errorf("current must not move, got sub-index %d", nav.SubIndex())
	}
}

func TestListDir_Missing(t *testing.T) {
	if _, err := ListDir(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// flakyScratch fails Wipe while fail is set
type flakyScratch struct {
	*scratch.Space
	fail bool
}

func (f *flakyScratch) Wipe() error {
	if f.fail {
		return domain.ErrIO
	}
	return f.Space.Wipe()
}

func TestNavigator_WipeFailureLeavesAlbum(t *testing.T) {
	e := newEnv(t)
	e.album(t, "a.zip", "m1.png", "m2.png", "m3.png")
	plain := e.file(t, "b.png")

	entries, err := ListDir(e.dir)
	if err != nil {
		t.Fatal(err)
	}
	sp := &flakyScratch{Space: e.scratch}
	nav := New(zap.NewNop(), entries, e.resolver, sp)

	if _, err := nav.First(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Mode() != domain.InAlbum {
		t.Fatalf("expected album mode, got %s", nav.Mode())
	}

	sp.fail = true
	if _, err := nav.Next(); !errors.Is(err, domain.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if nav.CurrentName() != plain {
		t.Errorf("expected current %s, got %s", plain, nav.CurrentName())
	}
	if nav.Mode() != domain.Flat {
		t.Errorf("expected flat mode after a failed top-level move, got %s", nav.Mode())
	}

	sp.fail = false
	if _, err := nav.NextSub(); !errors.Is(err, domain.ErrNotInAlbum) {
		t.Errorf("expected ErrNotInAlbum, got %v", err)
	}
}

func TestNavigator_Restore(t *testing.T) {
	e := newEnv(t)
	album := e.album(t, "a.zip", "m1.png", "m2.png", "m3.png")
	e.file(t, "b.png")
	e.file(t, "c.png")

	nav := e.navigator(t)
	if _, err := nav.First(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := nav.NextSub(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := nav.Position()
	if pos != (Position{Index: 0, Sub: 1, InAlbum: true}) {
		t.Fatalf("unexpected position: %+v", pos)
	}

	if _, err := nav.Prev(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pair, err := nav.Restore(pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.CurrentName() != album || nav.SubIndex() != 1 {
		t.Errorf("expected %s at member 1, got %s at %d", album, nav.CurrentName(), nav.SubIndex())
	}
	if pair.Media != filepath.Join(e.scratch.Dir(), "m2.png") {
		t.Errorf("expected m2.png, got %s", pair.Media)
	}

	// Past the end after a delete
	if _, err := nav.Restore(Position{Index: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Index() != 2 || nav.Mode() != domain.Flat {
		t.Errorf("expected the last entry, got %d (%s)", nav.Index(), nav.Mode())
	}
}
