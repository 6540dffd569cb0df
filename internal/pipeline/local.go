package pipeline

import (
	"context"
	"fmt"

	"github.com/docgate-app/docgate/internal/pdftext"
	"github.com/docgate-app/docgate/internal/remoteocr"
)

// LocalPDFParser is the zero-weight fallback for PDFs with embedded text. It
// extracts text locally and never produces an archive rendition.
type LocalPDFParser struct {
	extractor *pdftext.Extractor
}

func NewLocalPDFParser(extractor *pdftext.Extractor) *LocalPDFParser {
	return &LocalPDFParser{extractor: extractor}
}

func (p *LocalPDFParser) Name() string {
	return "local-pdf"
}

func (p *LocalPDFParser) Weight() int {
	return 0
}

func (p *LocalPDFParser) SupportedMimeTypes() map[string]string {
	return map[string]string{
		"application/pdf": ".pdf",
	}
}

func (p *LocalPDFParser) Parse(ctx context.Context, data []byte, mimeType string) (*remoteocr.Result, error) {
	text, err := p.extractor.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("local PDF extraction failed: %w", err)
	}
	return &remoteocr.Result{Text: pdftext.Sanitize(text)}, nil
}
