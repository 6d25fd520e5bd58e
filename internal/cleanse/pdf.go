package cleanse

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/sniff"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/tempfile"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/visual"
)

// PDF strips annotations and info-dictionary properties with pdfcpu.
type PDF struct {
	runner        runner.Runner
	fingerprinter *visual.Fingerprinter
}

// NewPDF returns the PDF strategy.
func NewPDF(r runner.Runner, fingerprinter *visual.Fingerprinter) *PDF {
	return &PDF{runner: r, fingerprinter: fingerprinter}
}

// Clean removes all annotation objects, then all document properties.
// Removing "all properties" leaves the predefined ones (Author and friends)
// behind, so those are explicitly blanked and removed again.
func (p *PDF) Clean(ctx context.Context, doc []byte) ([]byte, error) {
	return tempfile.Rewrite(doc, "input.pdf", func(path string) error {
		steps := [][]string{
			{"annot", "remove", path},
			{"prop", "remove", path},
			{"prop", "add", path, "Author=", "Subject=", "Title="},
			{"prop", "remove", path, "Author", "Subject", "Title"},
		}
		for _, args := range steps {
			if _, err := p.runner.Run(ctx, runner.Invocation{Path: "pdfcpu", Args: args}); err != nil {
				return fmt.Errorf("pdfcpu %s %s failed: %w", args[0], args[1], err)
			}
		}
		return nil
	})
}

// Compare renders both documents and compares page fingerprints. A PDF
// whose visible annotations were flattened away by cleansing will differ
// here, which the orchestrator treats as a recoverable failure.
func (p *PDF) Compare(ctx context.Context, original, cleansed []byte) (bool, error) {
	return p.fingerprinter.Identical(ctx, original, cleansed)
}

// Info returns the pdfcpu metadata report for the document.
func (p *PDF) Info(ctx context.Context, doc []byte) ([]byte, error) {
	return tempfile.Derive(doc, "input.pdf", func(path string) ([]byte, error) {
		res, err := p.runner.Run(ctx, runner.Invocation{Path: "pdfcpu", Args: []string{"info", path}})
		if err != nil {
			return nil, fmt.Errorf("pdfcpu info failed: %w", err)
		}
		return res.Output, nil
	})
}

// VerifyRemoval confirms metadata removal is durable: exiftool must not be
// able to restore a previous metadata state from the cleansed file.
func (p *PDF) VerifyRemoval(ctx context.Context, doc []byte) error {
	_, err := tempfile.Derive(doc, "input.pdf", func(path string) ([]byte, error) {
		res, runErr := p.runner.Run(ctx, runner.Invocation{Path: "exiftool", Args: []string{"-pdf-update:all=", path}})
		if runErr != nil {
			return nil, fmt.Errorf("exiftool verification failed: %w", runErr)
		}
		if !bytes.Contains(res.Output, []byte("no previous ExifTool update")) {
			return nil, &CleansingError{Format: sniff.FormatPDF, Detail: "exiftool reports a restorable previous metadata update"}
		}
		return res.Output, nil
	})
	return err
}

// QDF rewrites the document in QDF form: uncompressed, object streams
// disabled, human-diffable. Used only for inspection and tests.
func (p *PDF) QDF(ctx context.Context, doc []byte) ([]byte, error) {
	return tempfile.Rewrite(doc, "input.pdf", func(path string) error {
		_, err := p.runner.Run(ctx, runner.Invocation{
			Path: "qpdf",
			Args: []string{"--qdf", "--object-streams=disable", "--replace-input", path},
		})
		if err != nil {
			return fmt.Errorf("qpdf failed: %w", err)
		}
		return nil
	})
}
