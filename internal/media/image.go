package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // BMP format support
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP format support
)

// gifDelayUnit is the resolution of GIF frame delays
const gifDelayUnit = 10 * time.Millisecond

// ImageSource yields frames from a still or animated image.
// Every frame is composited onto an opaque white canvas of the image size.
type ImageSource struct {
	still *image.NRGBA

	anim    *gif.GIF
	cursor  int
	canvas  *image.NRGBA
	restore *image.NRGBA
	bounds  image.Rectangle
}

// OpenImage decodes the image at path. Multi-frame GIFs become animated sources.
func OpenImage(path string) (*ImageSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image: %w", domain.ErrIO, err)
	}

	if filetype.Is(data, "gif") {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode gif: %w", domain.ErrDecode, err)
		}
		if len(g.Image) > 1 {
			return newAnimated(g), nil
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", domain.ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: invalid image dimensions: %dx%d", domain.ErrDecode, b.Dx(), b.Dy())
	}

	return &ImageSource{still: flatten(img)}, nil
}

func newAnimated(g *gif.GIF) *ImageSource {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, frame := range g.Image[1:] {
			bounds = bounds.Union(frame.Bounds())
		}
	}

	return &ImageSource{
		anim:   g,
		cursor: -1,
		bounds: bounds,
		canvas: image.NewNRGBA(bounds),
	}
}

// NextFrame returns the next frame. Animated sources loop back to the first frame after the last.
func (s *ImageSource) NextFrame() (*image.NRGBA, error) {
	if s.anim == nil {
		return s.still, nil
	}

	next := s.cursor + 1
	if next >= len(s.anim.Image) {
		next = 0
	}

	if next == 0 {
		s.canvas = image.NewNRGBA(s.bounds)
		s.restore = nil
	} else {
		s.dispose(s.cursor)
	}

	if s.disposal(next) == gif.DisposalPrevious {
		s.restore = imaging.Clone(s.canvas)
	}

	frame := s.anim.Image[next]
	draw.Draw(s.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	s.cursor = next

	return flatten(s.canvas), nil
}

// FrameDuration returns the GIF delay of the current frame; still images have none
func (s *ImageSource) FrameDuration() (time.Duration, bool) {
	if s.anim == nil {
		return 0, false
	}

	idx := max(s.cursor, 0)
	if idx >= len(s.anim.Delay) || s.anim.Delay[idx] == 0 {
		return 0, false
	}
	return time.Duration(s.anim.Delay[idx]) * gifDelayUnit, true
}

// Close releases the decoded frames
func (s *ImageSource) Close() error {
	s.still = nil
	s.anim = nil
	s.canvas = nil
	s.restore = nil
	return nil
}

// dispose applies the disposal method of frame idx before the following frame is drawn
func (s *ImageSource) dispose(idx int) {
	switch s.disposal(idx) {
	case gif.DisposalBackground:
		r := s.anim.Image[idx].Bounds()
		draw.Draw(s.canvas, r, image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		if s.restore != nil {
			s.canvas = s.restore
			s.restore = nil
		}
	}
}

func (s *ImageSource) disposal(idx int) byte {
	if idx < 0 || idx >= len(s.anim.Disposal) {
		return gif.DisposalNone
	}
	return s.anim.Disposal[idx]
}

// flatten composites img onto an opaque white canvas of the same size
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
