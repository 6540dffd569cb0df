package remoteocr

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// parseGenericREST runs the generic REST flow: build the JSON envelope, post
// it with retry, and normalize the response. Unlike the provider backends, a
// missing endpoint here is a configuration failure rather than a soft empty
// result: the generic backend is an explicit primary choice, not an optional
// enhancement.
func (g *Gateway) parseGenericREST(ctx context.Context, data []byte, mimeType string) (*Result, *Failure) {
	if g.cfg.Endpoint == "" {
		return nil, newFailure(g.cfg.Engine, KindConfiguration,
			"OCR endpoint is not configured")
	}

	payload := buildRESTPayload(data, mimeType, g.cfg)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, wrapUnexpected(g.cfg.Engine, err)
	}
	headers := buildRESTHeaders(g.cfg)

	resp, fail := g.doWithRetry(ctx, func(ctx context.Context, attempt int) (*rawResponse, *Failure) {
		log.Debug().
			Str("endpoint", g.cfg.Endpoint).
			Int("attempt", attempt).
			Msg("Sending OCR request")
		return g.do(ctx, http.MethodPost, g.cfg.Endpoint, body, headers)
	})
	if fail != nil {
		return nil, fail
	}

	// A non-JSON success body is treated as raw text output.
	var doc map[string]any
	if err := json.Unmarshal(resp.body, &doc); err != nil {
		doc = map[string]any{"text": string(resp.body)}
	}

	text, err := extractText(doc)
	if err != nil {
		return nil, newFailure(g.cfg.Engine, KindResponseShape, "%v", err)
	}

	return &Result{Text: strings.TrimSpace(text)}, nil
}
