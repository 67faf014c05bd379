// Package display sizes the viewport from the configuration and the attached screen.
package display

import (
	"image"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// Fallback used when no display can be probed
var fallback = domain.ScreenResolution{Width: 1920, Height: 1080}

// Probe reports the bounds of the screen frames are sized for; false when none is attached
type Probe func() (image.Rectangle, bool)

// PrimaryScreen probes the first active display
func PrimaryScreen() (image.Rectangle, bool) {
	if screenshot.NumActiveDisplays() < 1 {
		return image.Rectangle{}, false
	}
	return screenshot.GetDisplayBounds(0), true
}

// ViewportSize returns the configured viewport size. Unset dimensions come from
// probe, which is only consulted when needed, and otherwise from 1920x1080.
func ViewportSize(logger *zap.Logger, cfg domain.Config, probe Probe) domain.ScreenResolution {
	w, h := cfg.GetViewportSize()
	if w > 0 && h > 0 {
		return domain.ScreenResolution{Width: w, Height: h}
	}

	screen := fallback
	if bounds, ok := probe(); ok && !bounds.Empty() {
		screen = domain.ScreenResolution{Width: bounds.Dx(), Height: bounds.Dy()}
		logger.Info("Screen resolution detected",
			zap.Int("width", screen.Width),
			zap.Int("height", screen.Height))
	} else {
		logger.Warn("No active display detected, using the fallback size",
			zap.Int("width", fallback.Width),
			zap.Int("height", fallback.Height))
	}

	if w <= 0 {
		w = screen.Width
	}
	if h <= 0 {
		h = screen.Height
	}
	return domain.ScreenResolution{Width: w, Height: h}
}
