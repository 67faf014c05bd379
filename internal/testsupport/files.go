// Package testsupport holds helpers for building media fixtures in tests.
package testsupport

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteFile writes content to path, creating parent directories
func WriteFile(t *testing.T, path string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteZip creates a zip at path holding members; names ending in "/" become directory entries.
// Members are written in sorted order so fixtures are reproducible.
func WriteZip(t *testing.T, path string, members map[string][]byte) string {
	t.Helper()
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		mw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mw.Write(members[name]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return WriteFile(t, path, buf.Bytes())
}

// PNG encodes a solid width x height image
func PNG(t *testing.T, width, height int, col color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, col)
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to create test PNG: %v", err)
	}
	return buf.Bytes()
}

// ListDir returns the sorted names directly inside dir
func ListDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// GIF encodes an animated GIF with one solid full-size frame per color
func GIF(t *testing.T, width, height int, delays []int, colors ...color.Color) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: width, Height: height}}
	for i, col := range colors {
		frame := image.NewPaletted(image.Rect(0, 0, width, height), color.Palette{color.Transparent, col})
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				frame.SetColorIndex(x, y, 1)
			}
		}
		delay := 0
		if i < len(delays) {
			delay = delays[i]
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	buf := new(bytes.Buffer)
	if err := gif.EncodeAll(buf, g); err != nil {
		t.Fatalf("failed to create test GIF: %v", err)
	}
	return buf.Bytes()
}
