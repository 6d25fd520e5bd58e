// Package sniff determines the true content type of an uploaded document
// from its leading bytes. Filenames, extensions and declared content types
// are user-controlled and never consulted.
package sniff

import "github.com/gabriel-vasile/mimetype"

// Format is the closed set of document formats the cleanser understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatDOCX
	FormatPDF
	FormatJPEG
	FormatPNG
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Detect sniffs the format from magic bytes. Unrecognised content yields
// FormatUnknown; there is no error case.
func Detect(data []byte) Format {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(docxMIME):
		return FormatDOCX
	case mtype.Is("application/pdf"):
		return FormatPDF
	case mtype.Is("image/jpeg"):
		return FormatJPEG
	case mtype.Is("image/png"):
		return FormatPNG
	default:
		return FormatUnknown
	}
}

// MIME returns the canonical media type of the format, or "" for unknown.
func (f Format) MIME() string {
	switch f {
	case FormatDOCX:
		return docxMIME
	case FormatPDF:
		return "application/pdf"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return ""
	}
}

// StoredContentType returns the content type to attach on write-back.
//
// A DOCX served with its real media type via a signed URL trips a bug in
// Edge, which hands the link to its online Office integration and fails with
// a network error. Storing DOCX as an opaque byte stream sidesteps that.
func (f Format) StoredContentType() string {
	if f == FormatDOCX {
		return "binary/octet-stream"
	}
	return f.MIME()
}

func (f Format) String() string {
	switch f {
	case FormatDOCX:
		return "docx"
	case FormatPDF:
		return "pdf"
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}
