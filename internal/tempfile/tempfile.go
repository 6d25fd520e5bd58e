// Package tempfile gives every tool invocation a scoped working file. The
// external tools operate on paths, not byte streams, so each call writes its
// input under a private temp directory and guarantees removal on every exit
// path. Using a whole directory also collects backup files some tools drop
// next to their input (exiftool's "_original" copies).
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Rewrite writes data to a scoped file, calls fn to mutate it in place, and
// reads the mutated file back.
func Rewrite(data []byte, name string, fn func(path string) error) ([]byte, error) {
	var result []byte
	err := withFile(data, name, func(path string) error {
		if err := fn(path); err != nil {
			return err
		}
		out, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read back %s: %w", filepath.Base(path), err)
		}
		result = out
		return nil
	})
	return result, err
}

// Derive writes data to a scoped file and returns whatever fn derives from
// it, leaving the file itself behind to be cleaned up.
func Derive(data []byte, name string, fn func(path string) ([]byte, error)) ([]byte, error) {
	var result []byte
	err := withFile(data, name, func(path string) error {
		out, err := fn(path)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}

// WithDir creates a scoped empty directory for fn to work in.
func WithDir(fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", "cleanser-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}

func withFile(data []byte, name string, fn func(path string) error) error {
	return WithDir(func(dir string) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to write temp file %s: %w", name, err)
		}
		return fn(path)
	})
}
