package visual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/tempfile"
)

// DefaultConvertTimeout bounds one headless office conversion. LibreOffice
// is far slower than the other tools, so it gets its own budget rather than
// the shared tool timeout.
const DefaultConvertTimeout = 120 * time.Second

// Converter turns a DOCX into a PDF with a headless office renderer so the
// page-fingerprint comparison can be applied to it.
type Converter struct {
	Runner  runner.Runner
	Timeout time.Duration
}

// NewConverter returns a Converter using soffice with the default budget.
func NewConverter(r runner.Runner) *Converter {
	return &Converter{Runner: r, Timeout: DefaultConvertTimeout}
}

// ConvertToPDF renders DOCX bytes to PDF bytes. soffice must be on PATH.
func (c *Converter) ConvertToPDF(ctx context.Context, docx []byte) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}

	var pdf []byte
	err := tempfile.WithDir(func(dir string) error {
		docxPath := filepath.Join(dir, "input.docx")
		if err := os.WriteFile(docxPath, docx, 0o600); err != nil {
			return fmt.Errorf("failed to write docx for conversion: %w", err)
		}

		_, err := c.Runner.Run(ctx, runner.Invocation{
			Path:    "soffice",
			Args:    []string{"--headless", "--convert-to", "pdf", "--outdir", dir, docxPath},
			Timeout: timeout,
		})
		if err != nil {
			return fmt.Errorf("headless office failed to convert docx to pdf: %w", err)
		}

		out, err := os.ReadFile(filepath.Join(dir, "input.pdf"))
		if err != nil {
			return fmt.Errorf("conversion produced no pdf: %w", err)
		}
		pdf = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
