// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error reports a failed extraction: corrupt input or an unsupported format.
// Extraction failures are fatal for the document; they are never retried.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: unsupported format", e.Format)
	}
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content, using the
// file extension as the format hint.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on hint, which may be a file
// extension (".pdf", with or without the dot) or a MIME type. Plain text
// (.txt, .md) is returned as-is, UTF-8 validated. PDF, DOCX, and XLSX are
// parsed from their binary formats. An unrecognized hint is an *Error:
// the pipeline refuses rather than silently mis-chunking binary content.
func (e *Extractor) ExtractBytes(content []byte, hint string) (string, error) {
	switch normalizeHint(hint) {
	case "pdf":
		return extractPDF(content)
	case "docx":
		return extractDOCX(content)
	case "xlsx":
		return extractXLSX(content)
	case "txt", "md", "":
		return extractPlain(content)
	default:
		return "", &Error{Format: hint}
	}
}

// normalizeHint maps extensions and MIME types onto a canonical format name.
func normalizeHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if i := strings.IndexByte(h, ';'); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}
	switch h {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "text/plain":
		return "txt"
	case "text/markdown":
		return "md"
	case "application/octet-stream":
		return ""
	}
	return strings.TrimPrefix(h, ".")
}
