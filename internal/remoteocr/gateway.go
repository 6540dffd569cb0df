package remoteocr

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docgate-app/docgate/internal/pdftext"
)

// Weight is the parser selection weight advertised to the ingestion
// pipeline. It is higher than the local fallback's so remote OCR wins MIME
// routing whenever a backend is configured.
const Weight = 10

// Result is the normalized outcome of a successful OCR call: the extracted
// plain text plus an optional searchable archive rendition.
type Result struct {
	Text    string
	Archive []byte
}

// TextExtractor recovers plain text from a PDF byte stream. The bridge
// backend uses it on the searchable PDF the service returns.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// Gateway dispatches OCR requests to the configured remote backend. It holds
// no cross-request mutable state; concurrent Parse calls are independent.
type Gateway struct {
	cfg     EngineConfig
	client  *http.Client
	pdfText TextExtractor
	metrics *Metrics
}

// NewGateway creates a gateway for the given backend configuration. The
// extractor is required only for the bridge backend; metrics may be nil.
func NewGateway(cfg EngineConfig, extractor TextExtractor, metrics *Metrics) *Gateway {
	return &Gateway{
		cfg:     cfg,
		client:  newHTTPClient(cfg),
		pdfText: extractor,
		metrics: metrics,
	}
}

// Name returns the parser name used in pipeline registration and logs.
func (g *Gateway) Name() string {
	return "remote-ocr"
}

// Weight returns the parser selection weight.
func (g *Gateway) Weight() int {
	return Weight
}

// SupportedMimeTypes returns the MIME type to extension mapping for the
// configured backend; empty when no valid backend is configured, so the
// pipeline never routes documents here.
func (g *Gateway) SupportedMimeTypes() map[string]string {
	return g.cfg.MimeTypes()
}

// Parse is the sole entry point the ingestion pipeline calls. It returns the
// normalized result, or an error that is always a *Failure carrying the
// classified kind. An unconfigured optional backend yields an empty result
// rather than an error: OCR is optional, absence is not fatal.
func (g *Gateway) Parse(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	start := time.Now()
	result, fail := g.dispatch(ctx, data, mimeType)
	g.metrics.observeParse(g.cfg.Engine, fail, time.Since(start))

	if fail != nil {
		log.Warn().
			Str("backend", string(g.cfg.Engine)).
			Str("kind", string(fail.Kind)).
			Msg(fail.Message)
		return nil, fail
	}

	// Remote responses can carry control characters that downstream storage
	// rejects, same as locally extracted text.
	result.Text = pdftext.Sanitize(result.Text)

	if result.Text == "" {
		log.Debug().Str("backend", string(g.cfg.Engine)).Msg("Remote OCR returned empty text")
	} else {
		log.Info().
			Str("backend", string(g.cfg.Engine)).
			Int("text_length", len(result.Text)).
			Int("archive_size", len(result.Archive)).
			Msg("Remote OCR completed")
	}
	return result, nil
}

func (g *Gateway) dispatch(ctx context.Context, data []byte, mimeType string) (*Result, *Failure) {
	switch g.cfg.Engine {
	case EngineGenericREST:
		return g.parseGenericREST(ctx, data, mimeType)
	case EngineVisionDocIntel:
		if !g.cfg.Valid() {
			log.Warn().Str("backend", string(g.cfg.Engine)).
				Msg("Remote OCR backend is not fully configured, content will be empty")
			return &Result{}, nil
		}
		return g.parseDocIntel(ctx, data)
	case EngineBridgeOCR:
		if !g.cfg.Valid() {
			log.Warn().Str("backend", string(g.cfg.Engine)).
				Msg("Remote OCR backend is not fully configured, content will be empty")
			return &Result{}, nil
		}
		return g.parseBridge(ctx, data, mimeType, "document")
	}

	log.Warn().Str("engine", string(g.cfg.Engine)).
		Msg("No valid remote OCR engine is configured, content will be empty")
	return &Result{}, nil
}
