package cleanse

import (
	"context"
	"fmt"
	"strings"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/runner"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/sniff"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/tempfile"
	"github.com/nationalarchives/da-caselaw-document-processing/internal/visual"
)

// Image strips all EXIF/XMP tag groups from a raster image with exiftool.
// One implementation serves both JPEG and PNG; only the temp file suffix
// differs.
type Image struct {
	format sniff.Format
	runner runner.Runner
}

// NewImage returns the strategy for a raster format.
func NewImage(format sniff.Format, r runner.Runner) *Image {
	return &Image{format: format, runner: r}
}

// Clean removes every tag group except the ICC color profile, which must
// survive because stripping it can change rendered colours. The profile
// group is listed before and after the strip; a profile that disappears,
// or any warning from the tool, fails the cleanse rather than risking a
// corrupted publish.
func (i *Image) Clean(ctx context.Context, doc []byte) ([]byte, error) {
	return tempfile.Rewrite(doc, "input."+i.format.String(), func(path string) error {
		hadProfile, err := i.hasColorProfile(ctx, path)
		if err != nil {
			return err
		}

		res, err := i.runner.Run(ctx, runner.Invocation{
			Path: "exiftool",
			Args: []string{"-all:all=", "--icc_profile:all", "-overwrite_original", path},
		})
		if err != nil {
			return fmt.Errorf("exiftool failed: %w", err)
		}
		if err := i.checkWarnings(string(res.Output)); err != nil {
			return err
		}

		if !hadProfile {
			return nil
		}
		stillHasProfile, err := i.hasColorProfile(ctx, path)
		if err != nil {
			return err
		}
		if !stillHasProfile {
			return &CleansingError{Format: i.format, Detail: "exiftool deleted the ICC color profile"}
		}
		return nil
	})
}

// hasColorProfile reports whether the image carries an embedded ICC
// profile. An empty listing means no profile.
func (i *Image) hasColorProfile(ctx context.Context, path string) (bool, error) {
	res, err := i.runner.Run(ctx, runner.Invocation{
		Path: "exiftool",
		Args: []string{"-icc_profile:all", "-s", path},
	})
	if err != nil {
		return false, fmt.Errorf("exiftool profile listing failed: %w", err)
	}
	return strings.TrimSpace(string(res.Output)) != "", nil
}

// Compare decodes both images and requires exact pixel equality.
func (i *Image) Compare(_ context.Context, original, cleansed []byte) (bool, error) {
	return visual.RasterIdentical(original, cleansed)
}

// Info returns the exiftool tag listing for the image.
func (i *Image) Info(ctx context.Context, doc []byte) ([]byte, error) {
	return tempfile.Derive(doc, "input."+i.format.String(), func(path string) ([]byte, error) {
		res, err := i.runner.Run(ctx, runner.Invocation{Path: "exiftool", Args: []string{path}})
		if err != nil {
			return nil, fmt.Errorf("exiftool info failed: %w", err)
		}
		return res.Output, nil
	})
}

func (i *Image) checkWarnings(output string) error {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "Warning:") {
			return &CleansingError{Format: i.format, Detail: fmt.Sprintf("unexpected exiftool warning: %s", strings.TrimSpace(line))}
		}
	}
	return nil
}
