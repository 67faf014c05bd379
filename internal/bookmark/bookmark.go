// Package bookmark persists the last viewed entry name as a single line.
package bookmark

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Load returns the saved entry name. A missing or blank bookmark returns false.
func Load(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read bookmark: %w", err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	name := strings.TrimSpace(line)
	if name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// Save replaces the bookmark with name
func Save(path, name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("bookmark name must be a single line: %q", name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bookmark directory: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
