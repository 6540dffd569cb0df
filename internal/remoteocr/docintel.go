package remoteocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	docIntelAPIVersion = "2024-11-30"
	docIntelModel      = "prebuilt-read"
	docIntelKeyHeader  = "Ocp-Apim-Subscription-Key"
)

// docIntelPollInterval is the wait between status polls. Variable so tests
// can shrink it.
var docIntelPollInterval = 2 * time.Second

// analyzeStatus is the provider's long-running operation envelope.
type analyzeStatus struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseDocIntel runs the document-intelligence protocol: submit the document
// for analysis, poll the operation until it settles, read the extracted text
// and fetch the searchable PDF rendition as the archive. If the archive
// fetch fails after text was obtained, the whole result is downgraded to
// empty text rather than kept partial.
func (g *Gateway) parseDocIntel(ctx context.Context, data []byte) (*Result, *Failure) {
	operationURL, fail := g.docIntelSubmit(ctx, data)
	if fail != nil {
		return nil, fail
	}

	result, fail := g.docIntelPoll(ctx, operationURL)
	if fail != nil {
		return nil, fail
	}

	text := strings.TrimSpace(result.AnalyzeResult.Content)

	archive, archiveFail := g.docIntelFetchPDF(ctx, operationURL)
	if archiveFail != nil {
		log.Error().
			Str("backend", string(g.cfg.Engine)).
			Str("error", archiveFail.Message).
			Msg("Searchable PDF retrieval failed, discarding extracted text")
		return &Result{}, nil
	}

	return &Result{Text: text, Archive: archive}, nil
}

// docIntelSubmit posts the analyze request. The provider answers 202 with an
// Operation-Location header pointing at the poll URL.
func (g *Gateway) docIntelSubmit(ctx context.Context, data []byte) (string, *Failure) {
	analyzeURL := strings.TrimSuffix(g.cfg.Endpoint, "/") +
		"/documentintelligence/documentModels/" + docIntelModel +
		":analyze?api-version=" + docIntelAPIVersion +
		"&outputContentFormat=text&output=pdf"

	payload, err := json.Marshal(map[string]string{
		"base64Source": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", wrapUnexpected(g.cfg.Engine, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set(docIntelKeyHeader, g.cfg.APIKey)

	resp, fail := g.doWithRetry(ctx, func(ctx context.Context, attempt int) (*rawResponse, *Failure) {
		log.Debug().
			Str("endpoint", g.cfg.Endpoint).
			Int("attempt", attempt).
			Msg("Submitting document for analysis")
		return g.do(ctx, http.MethodPost, analyzeURL, payload, headers)
	})
	if fail != nil {
		return "", fail
	}

	operationURL := resp.header.Get("Operation-Location")
	if operationURL == "" {
		return "", newFailure(g.cfg.Engine, KindResponseShape,
			"analyze response is missing the Operation-Location header")
	}
	return operationURL, nil
}

// docIntelPoll polls the operation URL until the analysis settles.
func (g *Gateway) docIntelPoll(ctx context.Context, operationURL string) (*analyzeStatus, *Failure) {
	headers := http.Header{}
	headers.Set(docIntelKeyHeader, g.cfg.APIKey)

	for {
		resp, fail := g.do(ctx, http.MethodGet, operationURL, nil, headers)
		if fail != nil {
			return nil, fail
		}

		var status analyzeStatus
		if err := json.Unmarshal(resp.body, &status); err != nil {
			return nil, newFailure(g.cfg.Engine, KindResponseShape,
				"failed to parse analysis status: %v", err)
		}

		switch status.Status {
		case "succeeded":
			return &status, nil
		case "failed":
			return nil, newFailure(g.cfg.Engine, KindUnexpected,
				"document analysis failed: %s: %s", status.Error.Code, status.Error.Message)
		}

		timer := time.NewTimer(docIntelPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, newFailure(g.cfg.Engine, KindTimeout,
				"canceled while waiting for analysis to complete: %v", ctx.Err())
		case <-timer.C:
		}
	}
}

// docIntelFetchPDF downloads the searchable PDF rendition of a completed
// analysis.
func (g *Gateway) docIntelFetchPDF(ctx context.Context, operationURL string) ([]byte, *Failure) {
	parsed, err := url.Parse(operationURL)
	if err != nil {
		return nil, wrapUnexpected(g.cfg.Engine, err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/pdf"
	parsed.RawQuery = "api-version=" + docIntelAPIVersion

	headers := http.Header{}
	headers.Set(docIntelKeyHeader, g.cfg.APIKey)

	resp, fail := g.do(ctx, http.MethodGet, parsed.String(), nil, headers)
	if fail != nil {
		return nil, fail
	}
	return resp.body, nil
}
