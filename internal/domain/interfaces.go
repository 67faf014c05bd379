package domain

//go:generate mockgen -destination=mocks/domain_mock.go -package=mocks github.com/genricoloni/capview/internal/domain FrameSource,Classifier,Notifier

import (
	"context"
	"image"
	"time"
)

// FrameSource produces successive raw frames from a decoded media file.
// Implementations own an exclusive decode handle until Close is called.
type FrameSource interface {
	// NextFrame advances the decode cursor and returns the frame at the new position.
	// Frames are opaque RGB images; the alpha channel is always fully set.
	NextFrame() (*image.NRGBA, error)

	// FrameDuration returns the nominal delay before the next frame.
	// The boolean is false when the source reports no timing.
	FrameDuration() (time.Duration, bool)

	// Close releases the decode handle
	Close() error
}

// Archive defines the archive codec used by the resolver
type Archive interface {
	// Members lists the member names of the archive at path, sorted lexicographically.
	// Directory entries are not members.
	Members(path string) ([]string, error)

	// Extract materializes the named member of the archive under dir
	// and returns the path of the extracted file
	Extract(path, member, dir string) (string, error)
}

// Classifier decides what kind of media a file holds
type Classifier interface {
	Classify(path string) (MediaKind, error)
}

// Notifier reports user-visible events outside the terminal (desktop notifications)
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// Config defines the interface for application configuration
type Config interface {
	// GetScratchDir returns the directory owned for extracted archive members
	GetScratchDir() string

	// GetResourceDir returns the directory holding placeholder resources
	GetResourceDir() string

	// GetOutputPath returns the file the shell writes the visible frame to
	GetOutputPath() string

	// GetZoomStep returns the scale delta applied by one zoom command
	GetZoomStep() float64

	// GetScrollStep returns the pixel delta applied by one scroll command
	GetScrollStep() int

	// GetMinScale returns the zoom floor; scales at or below it are rejected
	GetMinScale() float64

	// GetDefaultFrameDuration is used when a frame source reports no timing
	GetDefaultFrameDuration() time.Duration

	// GetViewportSize returns the configured viewport; zeros mean "derive from the screen"
	GetViewportSize() (width, height int)

	// GetFFmpegPath returns the ffmpeg binary used to decode video
	GetFFmpegPath() string

	// GetFFprobePath returns the ffprobe binary used to inspect video
	GetFFprobePath() string

	// GetRedraw reports whether the shell redraws on the frame timer
	GetRedraw() bool
}
