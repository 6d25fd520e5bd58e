// Package cleanse holds one metadata-stripping strategy per supported
// document format. Every strategy takes document bytes, works on a scoped
// temp file with external tools where needed, and returns new bytes; the
// original is never mutated.
package cleanse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/sniff"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/visual"
)

// ErrVisuallyDifferent marks a document that no longer looks the same after
// cleansing. It is an expected, recoverable outcome (annotation removal can
// legitimately change pixels), not a bug signal: the caller keeps the
// original and marks the item failed.
var ErrVisuallyDifferent = errors.New("document is visually different after cleansing")

// CleansingError wraps an anticipated cleansing anomaly, such as an
// unexpected tool warning.
type CleansingError struct {
	Format sniff.Format
	Detail string
}

func (e *CleansingError) Error() string {
	return fmt.Sprintf("cleansing %s failed: %s", e.Format, e.Detail)
}

// Strategy is the uniform per-format contract.
type Strategy interface {
	// Clean returns a copy of the document with authorship metadata removed.
	Clean(ctx context.Context, doc []byte) ([]byte, error)
	// Compare reports whether original and cleansed are visually identical.
	Compare(ctx context.Context, original, cleansed []byte) (bool, error)
	// Info returns a human-readable metadata report for diagnostics.
	Info(ctx context.Context, doc []byte) ([]byte, error)
}

// Toolchain carries the shared collaborators strategies are built from.
type Toolchain struct {
	Runner         runner.Runner
	ConvertTimeout time.Duration
}

// Registry maps sniffed formats to their strategies.
type Registry struct {
	strategies map[sniff.Format]Strategy
}

// NewRegistry builds the standard four-format registry.
func NewRegistry(tc Toolchain) *Registry {
	fingerprinter := visual.NewFingerprinter(tc.Runner)
	converter := visual.NewConverter(tc.Runner)
	if tc.ConvertTimeout > 0 {
		converter.Timeout = tc.ConvertTimeout
	}

	return &Registry{strategies: map[sniff.Format]Strategy{
		sniff.FormatDOCX: NewDOCX(converter, fingerprinter),
		sniff.FormatPDF:  NewPDF(tc.Runner, fingerprinter),
		sniff.FormatJPEG: NewImage(sniff.FormatJPEG, tc.Runner),
		sniff.FormatPNG:  NewImage(sniff.FormatPNG, tc.Runner),
	}}
}

// ForFormat returns the strategy for a format, if one is registered.
func (r *Registry) ForFormat(f sniff.Format) (Strategy, bool) {
	s, ok := r.strategies[f]
	return s, ok
}
