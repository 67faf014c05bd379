package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	listingTTL     = 5 * time.Minute
	listingCleanup = 10 * time.Minute
)

// Zip is the archive codec for .zip files.
// Member listings are cached per (path, size, mtime) so stepping through an album
// doesn't re-read the central directory on every move.
type Zip struct {
	logger   *zap.Logger
	listings *cache.Cache
}

// NewZip creates a new zip codec
func NewZip(logger *zap.Logger) *Zip {
	return &Zip{
		logger:   logger,
		listings: cache.New(listingTTL, listingCleanup),
	}
}

// IsArchive reports whether path is handled by this codec
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// Members lists the sorted file members of the archive
func (z *Zip) Members(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat archive: %w", domain.ErrIO, err)
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if cached, ok := z.listings.Get(key); ok {
		return append([]string(nil), cached.([]string)...), nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive: %w", domain.ErrIO, err)
	}
	defer r.Close()

	members := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, f.Name)
	}
	sort.Strings(members)

	z.listings.Set(key, members, cache.DefaultExpiration)
	z.logger.Debug("Archive listed", zap.String("path", path), zap.Int("members", len(members)))

	return append([]string(nil), members...), nil
}

// Extract writes member into dir and returns the extracted path.
// Member names that would land outside dir are rejected.
func (z *Zip) Extract(path, member, dir string) (string, error) {
	target, err := memberTarget(dir, member)
	if err != nil {
		return "", err
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open archive: %w", domain.ErrIO, err)
	}
	defer r.Close()

	var file *zip.File
	for _, f := range r.File {
		if f.Name == member {
			file = f
			break
		}
	}
	if file == nil {
		return "", fmt.Errorf("%w: member %q not in %s", domain.ErrIO, member, filepath.Base(path))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create member directory: %w", domain.ErrIO, err)
	}

	if err := writeMember(file, target); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: failed to extract %q: %w", domain.ErrIO, member, err)
	}

	z.logger.Debug("Member extracted", zap.String("archive", path), zap.String("member", member))
	return target, nil
}

func writeMember(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func memberTarget(dir, member string) (string, error) {
	if member == "" {
		return "", fmt.Errorf("%w: empty member name", domain.ErrIO)
	}
	target := filepath.Join(dir, filepath.FromSlash(member))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: member %q escapes extraction directory", domain.ErrIO, member)
	}
	return target, nil
}
