package remoteocr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// restPayload is the JSON envelope posted to the generic REST backend.
type restPayload struct {
	Document string         `json:"document"`
	MimeType string         `json:"mime_type"`
	Language string         `json:"language"`
	Options  map[string]any `json:"options"`
}

// buildRESTPayload embeds the document as base64 alongside its MIME type and
// the configured language hint.
func buildRESTPayload(data []byte, mimeType string, cfg EngineConfig) restPayload {
	return restPayload{
		Document: base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
		Language: cfg.Language,
		Options:  map[string]any{},
	}
}

// buildRESTHeaders synthesizes the headers for the generic REST backend. At
// most one auth header is added based on the configured method; operator
// custom headers are merged last and may overwrite anything.
func buildRESTHeaders(cfg EngineConfig) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	switch strings.ToLower(cfg.AuthMethod) {
	case AuthBearer:
		if cfg.AuthToken != "" {
			headers.Set("Authorization", "Bearer "+cfg.AuthToken)
		}
	case AuthAPIKey:
		if cfg.APIKey != "" {
			headers.Set("X-API-Key", cfg.APIKey)
		}
	case AuthBasic:
		// The API key is used as the username with an empty password.
		if cfg.APIKey != "" {
			credentials := base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":"))
			headers.Set("Authorization", "Basic "+credentials)
		}
	}

	for key, value := range cfg.CustomHeaders {
		headers.Set(key, value)
	}

	return headers
}

// buildBridgeRequest builds the multipart upload body and headers for the
// bridge backend: a "file" part carrying the document and an
// output_format=pdf field.
func buildBridgeRequest(data []byte, mimeType, fileName string, cfg EngineConfig) ([]byte, http.Header, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	partHeader.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, nil, fmt.Errorf("failed to write document part: %w", err)
	}
	if err := writer.WriteField("output_format", "pdf"); err != nil {
		return nil, nil, fmt.Errorf("failed to write output_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", writer.FormDataContentType())
	headers.Set("X-API-Key", cfg.APIKey)

	return buf.Bytes(), headers, nil
}
