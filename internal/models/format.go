// Package models defines the core data structures passed between the upload,
// conversion and storage layers.
package models

import (
	"path/filepath"
	"strings"
)

// Format is a supported document format, identified by its lowercased extension.
type Format string

const (
	FormatDOCX Format = ".docx"
	FormatPDF  Format = ".pdf"
	FormatPPTX Format = ".pptx"
)

// SupportedFormats lists every format the converter accepts, in display order.
var SupportedFormats = []Format{FormatDOCX, FormatPDF, FormatPPTX}

// ParseFormat derives the format from a filename's extension. Content is never inspected.
// The boolean is false when the extension is not supported.
func ParseFormat(filename string) (Format, bool) {
	f := Format(strings.ToLower(filepath.Ext(filename)))
	switch f {
	case FormatDOCX, FormatPDF, FormatPPTX:
		return f, true
	}
	return f, false
}

// Ext returns the extension including the leading dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type used when serving a document of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

// Segmented reports whether text of this format is carried as ordered runs
// rather than a single body.
func (f Format) Segmented() bool {
	return f == FormatPPTX
}
