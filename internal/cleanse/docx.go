package cleanse

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"

	"github.com/nationalarchives/da-caselaw-document-processing/internal/visual"
)

// OOXML namespaces carrying authorship metadata.
const (
	nsCoreProperties = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDublinCore     = "http://purl.org/dc/elements/1.1/"
	nsWordML2012     = "http://schemas.microsoft.com/office/word/2012/wordml"
	nsWordML         = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

const redactionString = ""

// forbiddenAttributes are redacted (set to "") on every element carrying
// them: comment/revision authorship in both WordprocessingML namespaces.
var forbiddenAttributes = map[[2]string]bool{
	{nsWordML2012, "author"}: true,
	{nsWordML2012, "userId"}: true,
	{nsWordML, "author"}:     true,
	{nsWordML, "initials"}:   true,
}

// forbiddenTags have their text content blanked wherever they appear; the
// element itself stays in place.
var forbiddenTags = map[[2]string]bool{
	{nsCoreProperties, "lastModifiedBy"}: true,
	{nsDublinCore, "creator"}:            true,
}

// DOCX strips authorship metadata from the XML parts of a DOCX archive.
type DOCX struct {
	converter     *visual.Converter
	fingerprinter *visual.Fingerprinter
}

// NewDOCX returns the DOCX strategy.
func NewDOCX(converter *visual.Converter, fingerprinter *visual.Fingerprinter) *DOCX {
	return &DOCX{converter: converter, fingerprinter: fingerprinter}
}

// Clean rewrites every XML part of the archive with authorship attributes
// and tags redacted. Parts that do not parse as XML (images and other
// binary members are expected) pass through untouched. A document that is
// not a zip archive at all is a structural error.
func (d *DOCX) Clean(_ context.Context, doc []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("file is not a valid DOCX (zip) archive: %w", err)
	}

	var buf bytes.Buffer
	out := zip.NewWriter(&buf)
	out.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	for _, part := range archive.File {
		content, err := readPart(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", part.Name, err)
		}

		w, err := out.CreateHeader(&zip.FileHeader{Name: part.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", part.Name, err)
		}
		if _, err := w.Write(redactPart(content)); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", part.Name, err)
		}
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Compare converts both documents to PDF and compares page fingerprints.
// The conversions run concurrently; the renderer dominates the cost.
func (d *DOCX) Compare(ctx context.Context, original, cleansed []byte) (bool, error) {
	var originalPDF, cleansedPDF []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pdf, err := d.converter.ConvertToPDF(gctx, original)
		originalPDF = pdf
		return err
	})
	g.Go(func() error {
		pdf, err := d.converter.ConvertToPDF(gctx, cleansed)
		cleansedPDF = pdf
		return err
	})
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("failed to convert docx for comparison: %w", err)
	}

	return d.fingerprinter.Identical(ctx, originalPDF, cleansedPDF)
}

// Info lists the archive parts and their sizes.
func (d *DOCX) Info(_ context.Context, doc []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("file is not a valid DOCX (zip) archive: %w", err)
	}
	var buf bytes.Buffer
	for _, part := range archive.File {
		fmt.Fprintf(&buf, "%s %d\n", part.Name, part.UncompressedSize64)
	}
	return buf.Bytes(), nil
}

func readPart(part *zip.File) ([]byte, error) {
	rc, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// redactPart redacts one XML part, or returns it verbatim if it is not XML.
func redactPart(content []byte) []byte {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil || doc.Root() == nil {
		return content
	}

	redactElement(doc.Root())

	out, err := doc.WriteToBytes()
	if err != nil {
		return content
	}
	return out
}

func redactElement(e *etree.Element) {
	for i := range e.Attr {
		attr := &e.Attr[i]
		if forbiddenAttributes[[2]string{attr.NamespaceURI(), attr.Key}] {
			attr.Value = redactionString
		}
	}
	if forbiddenTags[[2]string{e.NamespaceURI(), e.Tag}] && e.Text() != "" {
		e.SetText(redactionString)
	}
	for _, child := range e.ChildElements() {
		redactElement(child)
	}
}
