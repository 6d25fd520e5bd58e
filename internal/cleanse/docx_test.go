package cleanse

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordml">
  <w:body>
    <w:p>
      <w:r><w:t>Hello world</w:t></w:r>
    </w:p>
    <w:comment w:author="Bob Smith" w:initials="BS" w15:author="Bob Smith" w15:userId="bob.smith@example.com">
      <w:p><w:r><w:t>A comment</w:t></w:r></w:p>
    </w:comment>
  </w:body>
</w:document>`

const testCoreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:creator>Alice Johnson</dc:creator>
  <cp:lastModifiedBy>Alice Johnson</cp:lastModifiedBy>
</cp:coreProperties>`

// A PNG header: deliberately not XML, to stand in for embedded media.
var testBinaryPart = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR binary image data")

type docxPart struct {
	name    string
	content []byte
}

func buildDOCX(t *testing.T, parts []docxPart) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, part := range parts {
		f, err := w.Create(part.name)
		require.NoError(t, err)
		_, err = f.Write(part.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func defaultParts() []docxPart {
	return []docxPart{
		{"word/document.xml", []byte(testDocumentXML)},
		{"docProps/core.xml", []byte(testCoreXML)},
		{"word/media/image1.png", testBinaryPart},
	}
}

func readParts(t *testing.T, docx []byte) map[string][]byte {
	t.Helper()
	archive, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	require.NoError(t, err)
	parts := make(map[string][]byte, len(archive.File))
	for _, f := range archive.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		parts[f.Name] = content
	}
	return parts
}

func TestDOCXClean_RedactsForbiddenAttributes(t *testing.T) {
	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	doc := string(readParts(t, cleansed)["word/document.xml"])
	assert.NotContains(t, doc, "Bob Smith")
	assert.NotContains(t, doc, "bob.smith@example.com")
	// Attributes are emptied, not removed.
	assert.Contains(t, doc, `w:author=""`)
	assert.Contains(t, doc, `w:initials=""`)
	assert.Contains(t, doc, `w15:author=""`)
	assert.Contains(t, doc, `w15:userId=""`)
}

func TestDOCXClean_BlanksForbiddenTags(t *testing.T) {
	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	core := string(readParts(t, cleansed)["docProps/core.xml"])
	assert.NotContains(t, core, "Alice Johnson")
	// The elements themselves survive.
	assert.Contains(t, core, "<dc:creator")
	assert.Contains(t, core, "<cp:lastModifiedBy")
}

func TestDOCXClean_PreservesBodyText(t *testing.T) {
	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	doc := string(readParts(t, cleansed)["word/document.xml"])
	assert.Contains(t, doc, "Hello world")
	assert.Contains(t, doc, "A comment")
}

func TestDOCXClean_BinaryPartPassesThroughVerbatim(t *testing.T) {
	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	assert.Equal(t, testBinaryPart, readParts(t, cleansed)["word/media/image1.png"])
}

func TestDOCXClean_PreservesPartOrder(t *testing.T) {
	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	archive, err := zip.NewReader(bytes.NewReader(cleansed), int64(len(cleansed)))
	require.NoError(t, err)
	var names []string
	for _, f := range archive.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"word/document.xml", "docProps/core.xml", "word/media/image1.png"}, names)
}

func TestDOCXClean_IdempotentOnMetadata(t *testing.T) {
	once, err := NewDOCX(nil, nil).Clean(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)
	twice, err := NewDOCX(nil, nil).Clean(context.Background(), once)
	require.NoError(t, err)

	for name, content := range readParts(t, twice) {
		assert.NotContains(t, string(content), "Bob Smith", "part %s", name)
		assert.NotContains(t, string(content), "Alice Johnson", "part %s", name)
	}
	assert.Contains(t, string(readParts(t, twice)["word/document.xml"]), "Hello world")
}

func TestDOCXClean_InvalidZipIsStructuralError(t *testing.T) {
	_, err := NewDOCX(nil, nil).Clean(context.Background(), []byte("this is not a zip archive"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid DOCX")
}

func TestDOCXClean_AttributeInOtherNamespaceKept(t *testing.T) {
	// Only authorship attributes in the WordprocessingML namespaces are
	// redacted; same-named attributes elsewhere are untouched.
	part := `<?xml version="1.0"?><root xmlns:x="http://example.com/ns" x:author="keep me"/>`
	docx := buildDOCX(t, []docxPart{{"word/custom.xml", []byte(part)}})

	cleansed, err := NewDOCX(nil, nil).Clean(context.Background(), docx)
	require.NoError(t, err)
	assert.Contains(t, string(readParts(t, cleansed)["word/custom.xml"]), "keep me")
}

func TestDOCXInfo_ListsParts(t *testing.T) {
	info, err := NewDOCX(nil, nil).Info(context.Background(), buildDOCX(t, defaultParts()))
	require.NoError(t, err)

	listing := string(info)
	for _, name := range []string{"word/document.xml", "docProps/core.xml", "word/media/image1.png"} {
		assert.True(t, strings.Contains(listing, name), "listing should mention %s", name)
	}
}
