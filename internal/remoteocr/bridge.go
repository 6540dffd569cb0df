package remoteocr

import (
	"context"
	"net/http"
	"strings"
)

// bridgeProcessPath is the bridge service's OCR endpoint, relative to the
// configured base URL.
const bridgeProcessPath = "/v2/ocr/ocrmac/process"

// parseBridge uploads the document to the bridge service and recovers text
// from the searchable PDF it returns. The PDF itself is kept as the archive
// rendition.
func (g *Gateway) parseBridge(ctx context.Context, data []byte, mimeType, fileName string) (*Result, *Failure) {
	if fileName == "" {
		fileName = "document"
	}

	body, headers, err := buildBridgeRequest(data, mimeType, fileName, g.cfg)
	if err != nil {
		return nil, wrapUnexpected(g.cfg.Engine, err)
	}

	endpoint := strings.TrimSuffix(g.cfg.Endpoint, "/") + bridgeProcessPath
	resp, fail := g.doWithRetry(ctx, func(ctx context.Context, attempt int) (*rawResponse, *Failure) {
		return g.do(ctx, http.MethodPost, endpoint, body, headers)
	})
	if fail != nil {
		return nil, fail
	}

	contentType := strings.ToLower(resp.header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/pdf") {
		if contentType == "" {
			contentType = "unknown content type"
		}
		return nil, newFailure(g.cfg.Engine, KindResponseShape,
			"expected PDF response, got %s", contentType)
	}

	text, err := g.pdfText.Extract(resp.body)
	if err != nil || strings.TrimSpace(text) == "" {
		return nil, newFailure(g.cfg.Engine, KindResponseShape,
			"unable to extract text from PDF response")
	}

	return &Result{
		Text:    strings.TrimSpace(text),
		Archive: resp.body,
	}, nil
}
