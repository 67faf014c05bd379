package viewport

import (
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/capview/internal/domain"
	"go.uber.org/zap"
)

// Viewport applies zoom and scroll to the frames of one source.
// A new Viewport starts at scale 1 with the scroll origin at 0,0.
type Viewport struct {
	logger          *zap.Logger
	source          domain.FrameSource
	minScale        float64
	defaultDuration time.Duration

	scale     float64
	scrollX   int
	scrollY   int
	maxX      int
	maxY      int
	unscaledX int
	unscaledY int
}

// New creates a viewport over source. Scales at or below minScale are rejected by Zoom.
func New(logger *zap.Logger, source domain.FrameSource, minScale float64, defaultDuration time.Duration) *Viewport {
	return &Viewport{
		logger:          logger,
		source:          source,
		minScale:        minScale,
		defaultDuration: defaultDuration,
		scale:           1,
	}
}

// GetFrame pulls the next frame, scales it and returns the width x height window at the scroll origin.
// The window is clipped to the scaled frame, so it may be smaller than requested.
func (v *Viewport) GetFrame(width, height int) (*image.NRGBA, error) {
	frame, err := v.source.NextFrame()
	if err != nil {
		return nil, err
	}

	b := frame.Bounds()
	v.unscaledX, v.unscaledY = b.Dx(), b.Dy()
	v.maxX = max(int(float64(v.unscaledX)*v.scale), 1)
	v.maxY = max(int(float64(v.unscaledY)*v.scale), 1)

	scaled := frame
	if v.maxX != v.unscaledX || v.maxY != v.unscaledY {
		scaled = imaging.Resize(frame, v.maxX, v.maxY, imaging.NearestNeighbor)
	}

	window := image.Rect(v.scrollX, v.scrollY, v.scrollX+width, v.scrollY+height).Intersect(scaled.Bounds())
	if window.Empty() {
		window = image.Rect(0, 0, min(width, v.maxX), min(height, v.maxY))
	}
	return imaging.Crop(scaled, window), nil
}

// ScrollVert moves the scroll origin by delta rows for a viewport height
func (v *Viewport) ScrollVert(delta, height int) {
	v.SetScrollY(v.scrollY+delta, height)
}

// ScrollHor moves the scroll origin by delta columns for a viewport width
func (v *Viewport) ScrollHor(delta, width int) {
	v.SetScrollX(v.scrollX+delta, width)
}

// SetScrollX clamps x to [0, maxX-width]. The upper clamp wins, so the origin
// goes negative when the viewport is wider than the content.
func (v *Viewport) SetScrollX(x, width int) {
	v.scrollX = clamp(x, width, v.maxX)
}

// SetScrollY clamps y the same way against maxY
func (v *Viewport) SetScrollY(y, height int) {
	v.scrollY = clamp(y, height, v.maxY)
}

// Zoom changes the scale by delta, keeping the scroll origin at the same relative position.
// Before the first frame only the scale changes.
func (v *Viewport) Zoom(delta float64, width, height int) bool {
	next := v.scale + delta
	if next <= v.minScale {
		v.logger.Debug("Zoom rejected", zap.Float64("scale", next), zap.Float64("min", v.minScale))
		return false
	}

	if v.maxX == 0 || v.maxY == 0 {
		v.scale = next
		return true
	}

	propX := float64(v.scrollX) / float64(v.maxX)
	propY := float64(v.scrollY) / float64(v.maxY)

	v.scale = next
	v.maxX = int(float64(v.unscaledX) * v.scale)
	v.maxY = int(float64(v.unscaledY) * v.scale)

	v.SetScrollX(int(propX*float64(v.unscaledX)*v.scale), width)
	v.SetScrollY(int(propY*float64(v.unscaledY)*v.scale), height)
	return true
}

// FrameDuration returns the source's nominal frame delay, or the default when it reports none
func (v *Viewport) FrameDuration() time.Duration {
	if d, ok := v.source.FrameDuration(); ok {
		return d
	}
	return v.defaultDuration
}

// Scale returns the current zoom factor
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Scroll returns the scroll origin
func (v *Viewport) Scroll() (x, y int) {
	return v.scrollX, v.scrollY
}

// Bounds returns the scaled content size as of the last frame or zoom
func (v *Viewport) Bounds() (maxX, maxY int) {
	return v.maxX, v.maxY
}

// Close releases the underlying frame source
func (v *Viewport) Close() error {
	return v.source.Close()
}

func clamp(v, dim, limit int) int {
	if v < 0 {
		v = 0
	}
	if v+dim > limit {
		v = limit - dim
	}
	return v
}
