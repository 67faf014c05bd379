package resources

import (
	_ "embed"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	BlankName      = "blank.png"
	EmptyName      = "empty.txt"
	AlbumErrorName = "album_error.txt"

	blankSize = 64
)

//go:embed assets/empty.txt
var emptyText []byte

//go:embed assets/album_error.txt
var albumErrorText []byte

// Placeholders holds the on-disk paths of the bundled placeholder resources
type Placeholders struct {
	Blank      string
	Empty      string
	AlbumError string
}

// Materialize writes the placeholder resources into dir, leaving files that already exist untouched.
// dir must not be the scratch space, which is wiped on every navigation.
func Materialize(logger *zap.Logger, dir string) (*Placeholders, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create resource directory: %w", err)
	}

	p := &Placeholders{
		Blank:      filepath.Join(dir, BlankName),
		Empty:      filepath.Join(dir, EmptyName),
		AlbumError: filepath.Join(dir, AlbumErrorName),
	}

	if err := writeIfMissing(p.Empty, emptyText); err != nil {
		return nil, err
	}
	if err := writeIfMissing(p.AlbumError, albumErrorText); err != nil {
		return nil, err
	}
	if _, err := os.Stat(p.Blank); os.IsNotExist(err) {
		if err := writeBlank(p.Blank); err != nil {
			return nil, err
		}
	}

	logger.Debug("Placeholder resources ready", zap.String("dir", dir))
	return p, nil
}

func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write placeholder %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeBlank renders the opaque white placeholder image
func writeBlank(path string) error {
	img := imaging.New(blankSize, blankSize, color.White)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blank placeholder: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode blank placeholder: %w", err)
	}
	return f.Close()
}
