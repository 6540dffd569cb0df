package remoteocr

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Second

// rawResponse is the outcome of a single successful transport attempt.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// newHTTPClient builds the shared transport client for a gateway. The
// timeout bounds each individual attempt; the host's overall ceiling is
// enforced through the request context.
func newHTTPClient(cfg EngineConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-out
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// do performs one HTTP attempt and classifies any failure. A 2xx status
// yields a rawResponse; everything else becomes a classified Failure.
func (g *Gateway) do(ctx context.Context, method, url string, body []byte, headers http.Header) (*rawResponse, *Failure) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, wrapUnexpected(g.cfg.Engine, err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	g.metrics.observeAttempt(g.cfg.Engine)

	resp, err := g.client.Do(req)
	if err != nil {
		kind := classifyTransportError(err)
		if kind == KindTimeout {
			return nil, newFailure(g.cfg.Engine, KindTimeout,
				"OCR request timed out after %s", g.client.Timeout)
		}
		return nil, newFailure(g.cfg.Engine, KindTransport, "OCR request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newFailure(g.cfg.Engine, classifyTransportError(err),
			"failed to read OCR response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fail := newFailure(g.cfg.Engine, classifyStatus(resp.StatusCode),
			"OCR API returned HTTP error: %d%s", resp.StatusCode, errorDetail(respBody))
		fail.Status = resp.StatusCode
		log.Warn().Str("backend", string(g.cfg.Engine)).Int("status", resp.StatusCode).Msg(fail.Message)
		return nil, fail
	}

	return &rawResponse{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		body:   respBody,
	}, nil
}
