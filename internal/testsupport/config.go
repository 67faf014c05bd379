package testsupport

import "time"

// Config is a fixed domain.Config for tests
type Config struct {
	ScratchDir           string
	ResourceDir          string
	OutputPath           string
	ZoomStep             float64
	ScrollStep           int
	MinScale             float64
	DefaultFrameDuration time.Duration
	ViewportWidth        int
	ViewportHeight       int
	FFmpegPath           string
	FFprobePath          string
	Redraw               bool
}

func (c *Config) GetScratchDir() string                  { return c.ScratchDir }
func (c *Config) GetResourceDir() string                 { return c.ResourceDir }
func (c *Config) GetOutputPath() string                  { return c.OutputPath }
func (c *Config) GetZoomStep() float64                   { return c.ZoomStep }
func (c *Config) GetScrollStep() int                     { return c.ScrollStep }
func (c *Config) GetMinScale() float64                   { return c.MinScale }
func (c *Config) GetDefaultFrameDuration() time.Duration { return c.DefaultFrameDuration }
func (c *Config) GetViewportSize() (int, int)            { return c.ViewportWidth, c.ViewportHeight }
func (c *Config) GetFFmpegPath() string                  { return c.FFmpegPath }
func (c *Config) GetFFprobePath() string                 { return c.FFprobePath }
func (c *Config) GetRedraw() bool                        { return c.Redraw }
