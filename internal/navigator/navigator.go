package navigator

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/resolver"
	"go.uber.org/zap"
)

// Resolver turns sequence entries into caption pairs
type Resolver interface {
	Resolve(path string, depth resolver.Depth) (resolver.Resolution, error)
	ResolveMember(album *resolver.Album, index int) (domain.CaptionPair, error)
}

// Scratch is the extraction directory wiped before every navigation step
type Scratch interface {
	Wipe() error
}

// Option configures a Navigator
type Option func(*Navigator)

// WithRand sets the random source used by Random
func WithRand(r *rand.Rand) Option {
	return func(n *Navigator) {
		n.rand = r
	}
}

// Navigator owns the top-level sequence and, while inside an album, the album sequence.
// It is not safe for concurrent use; all calls are expected on one goroutine.
type Navigator struct {
	logger   *zap.Logger
	resolver Resolver
	scratch  Scratch
	rand     *rand.Rand

	top   *Sequence[string]
	mode  domain.Mode
	album *resolver.Album
	sub   *Sequence[string]
}

// New creates a navigator over entries. Entries are sorted; the caller's slice is not modified.
func New(logger *zap.Logger, entries []string, res Resolver, sp Scratch, opts ...Option) *Navigator {
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)

	n := &Navigator{
		logger:   logger,
		resolver: res,
		scratch:  sp,
		top:      NewSequence(sorted),
	}
	for _, opt := range opts {
		opt(n)
	}

	logger.Info("Navigator ready", zap.Int("entries", len(sorted)))
	return n
}

// ListDir returns the absolute paths of the regular files directly inside dir
func ListDir(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, abs)
		}
		return nil, fmt.Errorf("%w: failed to read directory: %w", domain.ErrIO, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}
	return files, nil
}

// First moves to the first top-level entry
func (n *Navigator) First() (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	n.top.Set(0)
	return n.resolveTop()
}

// Random moves to a uniformly random top-level entry
func (n *Navigator) Random() (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	if n.rand != nil {
		n.top.Set(n.rand.IntN(n.top.Len()))
	} else {
		n.top.Set(rand.IntN(n.top.Len()))
	}
	return n.resolveTop()
}

// ByName moves to the entry whose path is name, or failing that, whose base name is name
func (n *Navigator) ByName(name string) (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}

	entries := n.top.Entries()
	idx := -1
	for i, e := range entries {
		if e == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, e := range entries {
			if filepath.Base(e) == name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return domain.CaptionPair{}, fmt.Errorf("%w: entry %q", domain.ErrNotFound, name)
	}

	n.top.Set(idx)
	return n.resolveTop()
}

// Next moves one top-level entry forward, wrapping to the first
func (n *Navigator) Next() (domain.CaptionPair, error) {
	return n.stepTop(1)
}

// Prev moves one top-level entry back, wrapping to the last
func (n *Navigator) Prev() (domain.CaptionPair, error) {
	return n.stepTop(-1)
}

// Current re-resolves the current position, top-level or album member
func (n *Navigator) Current() (domain.CaptionPair, error) {
	if n.mode == domain.InAlbum {
		return n.resolveSub()
	}
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	return n.resolveTop()
}

// Delete removes the file behind the current top-level entry and resolves the entry now at its position.
// The last remaining entry is never deleted.
func (n *Navigator) Delete() (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	if n.top.Len() == 1 {
		return domain.CaptionPair{}, fmt.Errorf("%w: refusing to delete the last remaining entry", domain.ErrNotFound)
	}

	path := n.top.Current()
	if err := os.Remove(path); err != nil {
		return domain.CaptionPair{}, fmt.Errorf("%w: failed to delete %s: %w", domain.ErrIO, path, err)
	}
	n.top.Remove()

	n.logger.Info("Entry deleted",
		zap.String("path", path),
		zap.Int("remaining", n.top.Len()))

	return n.resolveTop()
}

// Position is a snapshot of where the navigator stands
type Position struct {
	Index   int
	Sub     int
	InAlbum bool
}

// Position returns the current position, for a later Restore
func (n *Navigator) Position() Position {
	return Position{Index: n.top.Index(), Sub: n.SubIndex(), InAlbum: n.mode == domain.InAlbum}
}

// Restore moves back to pos and resolves it. An index past the end, as after a delete, is clamped to the last entry.
func (n *Navigator) Restore(pos Position) (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	n.top.Set(min(max(pos.Index, 0), n.top.Len()-1))

	pair, err := n.resolveTop()
	if err != nil || !pos.InAlbum || n.mode != domain.InAlbum || pos.Sub <= 0 || pos.Sub >= n.sub.Len() {
		return pair, err
	}
	n.sub.Set(pos.Sub)
	return n.resolveSub()
}

// NextSub moves one album member forward, wrapping to the first
func (n *Navigator) NextSub() (domain.CaptionPair, error) {
	return n.stepSub(1)
}

// PrevSub moves one album member back, wrapping to the last
func (n *Navigator) PrevSub() (domain.CaptionPair, error) {
	return n.stepSub(-1)
}

// CurrentName returns the current top-level entry, or "" for an empty sequence
func (n *Navigator) CurrentName() string {
	if n.top.Len() == 0 {
		return ""
	}
	return n.top.Current()
}

// CurrentSubName returns the current album member; false when not inside an album
func (n *Navigator) CurrentSubName() (string, bool) {
	if n.mode != domain.InAlbum {
		return "", false
	}
	return n.sub.Current(), true
}

// Mode reports whether the navigator is inside an album
func (n *Navigator) Mode() domain.Mode {
	return n.mode
}

// Index returns the top-level position
func (n *Navigator) Index() int {
	return n.top.Index()
}

// SubIndex returns the album position; 0 outside an album
func (n *Navigator) SubIndex() int {
	if n.mode != domain.InAlbum {
		return 0
	}
	return n.sub.Index()
}

// Len returns the number of top-level entries
func (n *Navigator) Len() int {
	return n.top.Len()
}

// Entries returns a copy of the sorted top-level entries
func (n *Navigator) Entries() []string {
	return n.top.Entries()
}

// AlbumLen returns the number of album members; 0 outside an album
func (n *Navigator) AlbumLen() int {
	if n.mode != domain.InAlbum {
		return 0
	}
	return n.sub.Len()
}

func (n *Navigator) stepTop(dir int) (domain.CaptionPair, error) {
	if err := n.ensureEntries(); err != nil {
		return domain.CaptionPair{}, err
	}
	n.top.Step(dir)
	return n.resolveTop()
}

func (n *Navigator) stepSub(dir int) (domain.CaptionPair, error) {
	if n.mode != domain.InAlbum {
		return domain.CaptionPair{}, domain.ErrNotInAlbum
	}
	n.sub.Step(dir)
	return n.resolveSub()
}

// resolveTop leaves any album, wipes scratch space and resolves the current top-level entry
func (n *Navigator) resolveTop() (domain.CaptionPair, error) {
	n.leaveAlbum()
	if err := n.scratch.Wipe(); err != nil {
		return domain.CaptionPair{}, err
	}

	path := n.top.Current()
	res, err := n.resolver.Resolve(path, resolver.TopLevel)
	if err != nil {
		return domain.CaptionPair{}, err
	}

	if res.Album != nil {
		n.album = res.Album
		n.sub = NewSequence(res.Album.Members)
		n.mode = domain.InAlbum
		n.logger.Info("Entered album",
			zap.String("archive", path),
			zap.Int("members", n.sub.Len()))
	}

	n.logger.Debug("Resolved entry",
		zap.Int("index", n.top.Index()),
		zap.String("media", res.Pair.Media),
		zap.String("caption", res.Pair.Caption))

	return res.Pair, nil
}

// resolveSub wipes scratch space and extracts and resolves the current album member
func (n *Navigator) resolveSub() (domain.CaptionPair, error) {
	if err := n.scratch.Wipe(); err != nil {
		return domain.CaptionPair{}, err
	}

	pair, err := n.resolver.ResolveMember(n.album, n.sub.Index())
	if err != nil {
		return domain.CaptionPair{}, err
	}

	n.logger.Debug("Resolved album member",
		zap.Int("subIndex", n.sub.Index()),
		zap.String("member", n.sub.Current()))

	return pair, nil
}

func (n *Navigator) leaveAlbum() {
	n.album = nil
	n.sub = nil
	n.mode = domain.Flat
}

func (n *Navigator) ensureEntries() error {
	if n.top.Len() == 0 {
		return fmt.Errorf("%w: no entries to navigate", domain.ErrNotFound)
	}
	return nil
}
