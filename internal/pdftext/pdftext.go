// Package pdftext provides local PDF utilities for the ingestion pipeline:
// plain-text extraction, page counting and Info-dictionary metadata.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor reads PDF byte streams. It is stateless and safe for concurrent
// use.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text content of a PDF. Pages that fail to
// decode are skipped so one broken page does not lose the whole document.
func (e *Extractor) Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	return strings.TrimSpace(text.String()), nil
}

// PageCount returns the number of pages in a PDF.
func (e *Extractor) PageCount(data []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return reader.NumPage(), nil
}

// Metadata returns the PDF Info dictionary (Title, Author, Producer and
// friends) as a string map. A PDF without an Info dictionary yields an
// empty map.
func (e *Extractor) Metadata(data []byte) (map[string]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	meta := map[string]string{}
	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return meta, nil
	}

	for _, key := range info.Keys() {
		value := info.Key(key)
		switch value.Kind() {
		case pdf.String:
			meta[key] = value.RawString()
		case pdf.Name:
			meta[key] = value.Name()
		default:
			meta[key] = value.String()
		}
	}
	return meta, nil
}

// Sanitize removes null bytes and control characters that downstream
// storage rejects, keeping tabs, newlines and carriage returns.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var builder strings.Builder
	builder.Grow(len(text))

	for _, r := range text {
		if r == '\t' || r == '\n' || r == '\r' || (r >= 0x20 && r != 0x7F) {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}
