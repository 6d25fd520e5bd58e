package visual

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/tempfile"
)

// DefaultResolution is the raster resolution for page fingerprints, in DPI.
const DefaultResolution = 150

// Fingerprinter renders each page of a PDF to PPM and hashes the pages
// together. PPM is just a header plus pixel data, so two renders of
// identical pages produce identical bytes, unlike compressed formats.
type Fingerprinter struct {
	Runner     runner.Runner
	Resolution int

	// pageCount is swappable so tests can fingerprint synthetic PDFs.
	pageCount func(path string) (int, error)
}

// NewFingerprinter returns a Fingerprinter using pdftoppm at the default
// resolution.
func NewFingerprinter(r runner.Runner) *Fingerprinter {
	return &Fingerprinter{Runner: r, Resolution: DefaultResolution, pageCount: api.PageCountFile}
}

// Fingerprint renders every page and returns the hex SHA-256 of the
// concatenated per-page PPM bytes, in page order.
func (f *Fingerprinter) Fingerprint(ctx context.Context, pdf []byte) (string, error) {
	resolution := f.Resolution
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	var digest string
	err := tempfile.WithDir(func(dir string) error {
		pdfPath := filepath.Join(dir, "input.pdf")
		if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
			return fmt.Errorf("failed to write pdf for rendering: %w", err)
		}

		_, err := f.Runner.Run(ctx, runner.Invocation{
			Path: "pdftoppm",
			Args: []string{"-r", strconv.Itoa(resolution), pdfPath, filepath.Join(dir, "page")},
		})
		if err != nil {
			return fmt.Errorf("failed to rasterize pdf: %w", err)
		}

		pages, err := filepath.Glob(filepath.Join(dir, "page-*.ppm"))
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("rasterizer produced no pages")
		}
		// pdftoppm zero-pads page numbers, so lexical order is page order.
		sort.Strings(pages)

		if f.pageCount != nil {
			expected, err := f.pageCount(pdfPath)
			if err != nil {
				return fmt.Errorf("failed to count pdf pages: %w", err)
			}
			if expected != len(pages) {
				return fmt.Errorf("rasterizer produced %d pages, document has %d", len(pages), expected)
			}
		}

		h := sha256.New()
		for _, page := range pages {
			ppm, err := os.ReadFile(page)
			if err != nil {
				return fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(page), err)
			}
			h.Write(ppm)
		}
		digest = hex.EncodeToString(h.Sum(nil))
		return nil
	})
	if err != nil {
		return "", err
	}
	return digest, nil
}

// Identical reports whether two PDFs render to identical pages. This is an
// exact fingerprint, not a perceptual comparison: any pixel shift counts as
// different.
func (f *Fingerprinter) Identical(ctx context.Context, a, b []byte) (bool, error) {
	digestA, err := f.Fingerprint(ctx, a)
	if err != nil {
		return false, err
	}
	digestB, err := f.Fingerprint(ctx, b)
	if err != nil {
		return false, err
	}
	return digestA == digestB, nil
}
