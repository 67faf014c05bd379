package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/capview/internal/archive"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/resources"
	"go.uber.org/zap"
)

// Depth is the nesting level a resolution happens at.
// Albums can only be opened at TopLevel, which caps nesting at one archive.
type Depth int

const (
	// TopLevel resolves an entry of the top-level sequence
	TopLevel Depth = iota
	// AlbumMember resolves a member extracted from the active album
	AlbumMember
)

// Album is a multi-member archive browsed as a nested sequence
type Album struct {
	Path    string
	Members []string
}

// Resolution is the outcome of resolving one path
type Resolution struct {
	Pair domain.CaptionPair
	// Album is set when a top-level archive was unpacked as an album.
	// Pair then holds member 0.
	Album *Album
}

// Scratch is the extraction target handed to the resolver
type Scratch interface {
	Dir() string
}

// Resolver turns a path into a caption pair, extracting archive members into scratch space as needed
type Resolver struct {
	logger       *zap.Logger
	archive      domain.Archive
	scratch      Scratch
	placeholders *resources.Placeholders
}

// NewResolver creates a new entry resolver
func NewResolver(logger *zap.Logger, arc domain.Archive, scratch Scratch, placeholders *resources.Placeholders) *Resolver {
	return &Resolver{
		logger:       logger,
		archive:      arc,
		scratch:      scratch,
		placeholders: placeholders,
	}
}

// Resolve classifies path and returns its caption pair.
// Shape mismatches (wrong member counts, nested albums) degrade to placeholders;
// only missing paths and archive I/O failures are returned as errors.
func (r *Resolver) Resolve(path string, depth Depth) (Resolution, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resolution{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return Resolution{}, fmt.Errorf("%w: failed to stat %s: %w", domain.ErrIO, path, err)
	}

	switch {
	case archive.IsArchive(path):
		return r.resolveArchive(path, depth)
	case isText(path):
		return Resolution{Pair: domain.CaptionPair{Media: r.placeholders.Blank, Caption: path}}, nil
	default:
		return Resolution{Pair: domain.CaptionPair{Media: path, Caption: r.placeholders.Empty}}, nil
	}
}

// ResolveMember extracts one member of an album and resolves it at AlbumMember depth
func (r *Resolver) ResolveMember(album *Album, index int) (domain.CaptionPair, error) {
	extracted, err := r.archive.Extract(album.Path, album.Members[index], r.scratch.Dir())
	if err != nil {
		return domain.CaptionPair{}, err
	}

	res, err := r.Resolve(extracted, AlbumMember)
	if err != nil {
		return domain.CaptionPair{}, err
	}
	return res.Pair, nil
}

func (r *Resolver) resolveArchive(path string, depth Depth) (Resolution, error) {
	members, err := r.archive.Members(path)
	if err != nil {
		return Resolution{}, err
	}

	texts, others := partition(members)
	if len(texts) == 1 && len(others) == 1 {
		pair, err := r.extractCaption(path, others[0], texts[0])
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Pair: pair}, nil
	}

	if depth != TopLevel {
		r.logger.Warn("Nested album refused", zap.String("archive", path))
		return Resolution{Pair: r.albumError()}, nil
	}
	if len(members) == 0 {
		r.logger.Warn("Empty archive", zap.String("archive", path))
		return Resolution{Pair: r.albumError()}, nil
	}

	album := &Album{Path: path, Members: members}
	pair, err := r.ResolveMember(album, 0)
	if err != nil {
		return Resolution{}, err
	}

	r.logger.Debug("Album opened",
		zap.String("archive", path),
		zap.Int("members", len(members)))

	return Resolution{Pair: pair, Album: album}, nil
}

func (r *Resolver) extractCaption(path, media, text string) (domain.CaptionPair, error) {
	textPath, err := r.archive.Extract(path, text, r.scratch.Dir())
	if err != nil {
		return domain.CaptionPair{}, err
	}
	mediaPath, err := r.archive.Extract(path, media, r.scratch.Dir())
	if err != nil {
		return domain.CaptionPair{}, err
	}
	return domain.CaptionPair{Media: mediaPath, Caption: textPath}, nil
}

func (r *Resolver) albumError() domain.CaptionPair {
	return domain.CaptionPair{Media: r.placeholders.Blank, Caption: r.placeholders.AlbumError}
}

// partition splits sorted member names into text members and everything else
func partition(members []string) (texts, others []string) {
	for _, m := range members {
		if isText(m) {
			texts = append(texts, m)
		} else {
			others = append(others, m)
		}
	}
	return texts, others
}

func isText(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}
