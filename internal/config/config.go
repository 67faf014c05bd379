package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	defaultZoomStep        = 0.1
	defaultScrollStep      = 10
	defaultMinScale        = 0.0
	defaultFrameDurationMS = 15
	defaultFFmpeg          = "ffmpeg"
	defaultFFprobe         = "ffprobe"
	defaultConfigPath      = "~/.config/capview/config.toml"
	appDirName             = "capview"
)

// Path is the explicit config file location; empty means CAPVIEW_CONFIG or the default path
type Path string

// File is the on-disk TOML layout. Every key is optional.
type File struct {
	ScratchDir      string  `toml:"scratch_dir"`
	ResourceDir     string  `toml:"resource_dir"`
	OutputPath      string  `toml:"output_path"`
	ZoomStep        float64 `toml:"zoom_step"`
	ScrollStep      int     `toml:"scroll_step"`
	MinScale        float64 `toml:"min_scale"`
	FrameDurationMS int     `toml:"frame_duration_ms"`
	ViewportWidth   int     `toml:"viewport_width"`
	ViewportHeight  int     `toml:"viewport_height"`
	FFmpeg          string  `toml:"ffmpeg"`
	FFprobe         string  `toml:"ffprobe"`
	Redraw          bool    `toml:"redraw"`
}

// AppConfig holds application configuration
type AppConfig struct {
	logger *zap.Logger
	file   File
	source string
}

// NewAppConfig builds the configuration from defaults, the optional TOML file and CAPVIEW_* environment variables, in that order
func NewAppConfig(logger *zap.Logger, path Path) (*AppConfig, error) {
	f := defaults()

	resolved, exists, err := resolvePath(string(path))
	if err != nil {
		return nil, err
	}
	if exists {
		if err := decodeFile(resolved, &f); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&f); err != nil {
		return nil, err
	}

	for _, p := range []*string{&f.ScratchDir, &f.ResourceDir, &f.OutputPath} {
		*p = expandPath(*p)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	source := "defaults"
	if exists {
		source = resolved
	}

	logger.Info("Configuration loaded",
		zap.String("source", source),
		zap.String("scratchDir", f.ScratchDir),
		zap.String("resourceDir", f.ResourceDir),
		zap.String("output", f.OutputPath),
		zap.Float64("zoomStep", f.ZoomStep),
		zap.Int("scrollStep", f.ScrollStep),
		zap.Bool("redraw", f.Redraw))

	return &AppConfig{logger: logger, file: f, source: source}, nil
}

func defaults() File {
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = os.TempDir()
	}
	base := filepath.Join(cache, appDirName)

	return File{
		ScratchDir:      filepath.Join(base, "tmp"),
		ResourceDir:     filepath.Join(base, "resources"),
		OutputPath:      filepath.Join(base, "frame.png"),
		ZoomStep:        defaultZoomStep,
		ScrollStep:      defaultScrollStep,
		MinScale:        defaultMinScale,
		FrameDurationMS: defaultFrameDurationMS,
		FFmpeg:          defaultFFmpeg,
		FFprobe:         defaultFFprobe,
	}
}

func resolvePath(path string) (string, bool, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CAPVIEW_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigPath
	}
	path = expandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return "", false, fmt.Errorf("config file %s does not exist", path)
			}
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

func decodeFile(path string, f *File) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(f); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(f *File) error {
	for key, dst := range map[string]*string{
		"CAPVIEW_SCRATCH_DIR":  &f.ScratchDir,
		"CAPVIEW_RESOURCE_DIR": &f.ResourceDir,
		"CAPVIEW_OUTPUT":       &f.OutputPath,
		"CAPVIEW_FFMPEG":       &f.FFmpeg,
		"CAPVIEW_FFPROBE":      &f.FFprobe,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CAPVIEW_REDRAW"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CAPVIEW_REDRAW %q: %w", v, err)
		}
		f.Redraw = b
	}
	return nil
}

func (f File) validate() error {
	if f.ZoomStep <= 0 {
		return fmt.Errorf("zoom_step must be positive, got %v", f.ZoomStep)
	}
	if f.ScrollStep <= 0 {
		return fmt.Errorf("scroll_step must be positive, got %d", f.ScrollStep)
	}
	if f.MinScale < 0 {
		return fmt.Errorf("min_scale must not be negative, got %v", f.MinScale)
	}
	if f.FrameDurationMS <= 0 {
		return fmt.Errorf("frame_duration_ms must be positive, got %d", f.FrameDurationMS)
	}
	if f.ViewportWidth < 0 || f.ViewportHeight < 0 {
		return fmt.Errorf("viewport size must not be negative, got %dx%d", f.ViewportWidth, f.ViewportHeight)
	}
	if within(f.ScratchDir, f.ResourceDir) {
		return errors.New("resource_dir must not be scratch_dir or lie inside it")
	}
	return nil
}

// within reports whether path is dir or lies below it
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Expand path if it contains ~ or environment variables
func expandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

// Source returns the config file in effect, or "defaults"
func (c *AppConfig) Source() string {
	return c.source
}

// GetScratchDir returns the directory owned for extracted archive members
func (c *AppConfig) GetScratchDir() string {
	return c.file.ScratchDir
}

// GetResourceDir returns the placeholder resource directory
func (c *AppConfig) GetResourceDir() string {
	return c.file.ResourceDir
}

// GetOutputPath returns the file the visible frame is written to
func (c *AppConfig) GetOutputPath() string {
	return c.file.OutputPath
}

func (c *AppConfig) GetZoomStep() float64 {
	return c.file.ZoomStep
}

func (c *AppConfig) GetScrollStep() int {
	return c.file.ScrollStep
}

func (c *AppConfig) GetMinScale() float64 {
	return c.file.MinScale
}

// GetDefaultFrameDuration is used when a source reports no frame timing
func (c *AppConfig) GetDefaultFrameDuration() time.Duration {
	return time.Duration(c.file.FrameDurationMS) * time.Millisecond
}

// GetViewportSize returns the configured viewport; zeros mean the screen size is used
func (c *AppConfig) GetViewportSize() (int, int) {
	return c.file.ViewportWidth, c.file.ViewportHeight
}

func (c *AppConfig) GetFFmpegPath() string {
	return c.file.FFmpeg
}

func (c *AppConfig) GetFFprobePath() string {
	return c.file.FFprobe
}

func (c *AppConfig) GetRedraw() bool {
	return c.file.Redraw
}
