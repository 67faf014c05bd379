package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

// isolate points every lookup at a fresh home so the developer's own config is never read
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	for _, key := range []string{
		"CAPVIEW_CONFIG", "CAPVIEW_SCRATCH_DIR", "CAPVIEW_RESOURCE_DIR",
		"CAPVIEW_OUTPUT", "CAPVIEW_FFMPEG", "CAPVIEW_FFPROBE", "CAPVIEW_REDRAW",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewAppConfig_Defaults(t *testing.T) {
	isolate(t)
	cache, err := os.UserCacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}

	cfg, err := NewAppConfig(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Source() != "defaults" {
		t.Errorf("expected defaults, got %s", cfg.Source())
	}
	if want := filepath.Join(cache, "capview", "tmp"); cfg.GetScratchDir() != want {
		t.Errorf("expected scratch dir %s, got %s", want, cfg.GetScratchDir())
	}
	if cfg.GetZoomStep() != 0.1 || cfg.GetScrollStep() != 10 || cfg.GetMinScale() != 0 {
		t.Errorf("unexpected steps: zoom %v scroll %d min %v", cfg.GetZoomStep(), cfg.GetScrollStep(), cfg.GetMinScale())
	}
	if cfg.GetDefaultFrameDuration() != 15*time.Millisecond {
		t.Errorf("expected 15ms, got %v", cfg.GetDefaultFrameDuration())
	}
	if cfg.GetFFmpegPath() != "ffmpeg" || cfg.GetFFprobePath() != "ffprobe" {
		t.Errorf("unexpected binaries: %s %s", cfg.GetFFmpegPath(), cfg.GetFFprobePath())
	}
	if w, h := cfg.GetViewportSize(); w != 0 || h != 0 {
		t.Errorf("expected derived viewport, got %dx%d", w, h)
	}
	if cfg.GetRedraw() {
		t.Error("expected redraw off")
	}
}

func TestNewAppConfig_FileAndEnv(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, `
scratch_dir = "~/scratch"
output_path = "/tmp/out.png"
zoom_step = 0.25
scroll_step = 40
frame_duration_ms = 30
viewport_width = 800
viewport_height = 600
redraw = true
`)
	t.Setenv("CAPVIEW_OUTPUT", "/tmp/env.png")

	cfg, err := NewAppConfig(zap.NewNop(), Path(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Source() != path {
		t.Errorf("expected source %s, got %s", path, cfg.Source())
	}
	if want := filepath.Join(home, "scratch"); cfg.GetScratchDir() != want {
		t.Errorf("expected %s, got %s", want, cfg.GetScratchDir())
	}
	if cfg.GetOutputPath() != "/tmp/env.png" {
		t.Errorf("expected the environment to win, got %s", cfg.GetOutputPath())
	}
	if cfg.GetZoomStep() != 0.25 || cfg.GetScrollStep() != 40 {
		t.Errorf("unexpected steps: %v %d", cfg.GetZoomStep(), cfg.GetScrollStep())
	}
	if cfg.GetDefaultFrameDuration() != 30*time.Millisecond {
		t.Errorf("expected 30ms, got %v", cfg.GetDefaultFrameDuration())
	}
	if w, h := cfg.GetViewportSize(); w != 800 || h != 600 {
		t.Errorf("expected 800x600, got %dx%d", w, h)
	}
	if !cfg.GetRedraw() {
		t.Error("expected redraw on")
	}
}

func TestNewAppConfig_ConfigFromEnvironment(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "scroll_step = 3\n")
	t.Setenv("CAPVIEW_CONFIG", path)

	cfg, err := NewAppConfig(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetScrollStep() != 3 {
		t.Errorf("expected 3, got %d", cfg.GetScrollStep())
	}
}

func TestNewAppConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		missing bool
	}{
		{name: "Missing explicit file", missing: true},
		{name: "Unknown key", content: "zoom = 1\n"},
		{name: "Malformed TOML", content: "zoom_step = \n"},
		{name: "Non-positive zoom step", content: "zoom_step = 0.0\n"},
		{name: "Negative minimum scale", content: "min_scale = -1.0\n"},
		{name: "Shared scratch and resources", content: "scratch_dir = \"/tmp/x\"\nresource_dir = \"/tmp/x\"\n"},
		{name: "Resources inside scratch", content: "scratch_dir = \"/tmp/x\"\nresource_dir = \"/tmp/x/res\"\n"},
		{name: "Invalid redraw flag", content: "", env: map[string]string{"CAPVIEW_REDRAW": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(home, "absent.toml")
			if !tt.missing {
				path = writeConfig(t, home, tt.content)
			}

			if _, err := NewAppConfig(zap.NewNop(), Path(path)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		path string
		want bool
	}{
		{name: "Same directory", dir: "/tmp/x", path: "/tmp/x/", want: true},
		{name: "Nested", dir: "/tmp/x", path: "/tmp/x/a/b", want: true},
		{name: "Sibling with shared prefix", dir: "/tmp/x", path: "/tmp/xy", want: false},
		{name: "Parent", dir: "/tmp/x", path: "/tmp", want: false},
		{name: "Unrelated", dir: "/tmp/x", path: "/var/cache", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := within(tt.dir, tt.path); got != tt.want {
				t.Errorf("within(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
			}
		})
	}
}
