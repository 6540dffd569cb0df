package remoteocr

import (
	"time"
)

// Engine identifies a remote OCR backend.
type Engine string

const (
	// EngineGenericREST posts a JSON envelope with a base64 document to a
	// user-operated OCR endpoint.
	EngineGenericREST Engine = "generic-rest"

	// EngineVisionDocIntel uses a document-intelligence provider: submit an
	// analysis job, poll it, then fetch a searchable PDF rendition.
	EngineVisionDocIntel Engine = "vision-doc-intel"

	// EngineBridgeOCR uploads the document to an OCR bridge service and
	// receives a searchable PDF back.
	EngineBridgeOCR Engine = "bridge-ocr"
)

// Authentication methods for the generic REST backend.
const (
	AuthBearer = "bearer"
	AuthAPIKey = "api_key"
	AuthBasic  = "basic"
)

// EngineConfig is the resolved configuration for a single backend. It is an
// immutable per-gateway value; no component reads ambient process-wide
// settings.
type EngineConfig struct {
	Engine        Engine
	Endpoint      string
	APIKey        string
	AuthToken     string
	AuthMethod    string
	Timeout       time.Duration
	RetryCount    int
	VerifyTLS     bool
	Language      string
	CustomHeaders map[string]string
}

// Known reports whether the engine identifier is one of the supported
// backends.
func (e Engine) Known() bool {
	switch e {
	case EngineGenericREST, EngineVisionDocIntel, EngineBridgeOCR:
		return true
	}
	return false
}

// Valid reports whether the engine is recognized and its required fields are
// set. The provider backends need both an endpoint and a credential; the
// generic REST backend only requires an endpoint since authentication is
// optional there.
func (c EngineConfig) Valid() bool {
	switch c.Engine {
	case EngineGenericREST:
		return c.Endpoint != ""
	case EngineVisionDocIntel, EngineBridgeOCR:
		return c.Endpoint != "" && c.APIKey != ""
	}
	return false
}

// genericRESTMimeTypes lists the document types routed to the generic REST
// backend.
var genericRESTMimeTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/tiff":      ".tif",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
}

// providerMimeTypes lists the document types the provider-style backends
// accept.
var providerMimeTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/tiff":      ".tiff",
	"image/bmp":       ".bmp",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
}

// MimeTypes returns the MIME type to file extension mapping for the
// configured engine. The mapping is empty when the engine is not valid, so
// the ingestion pipeline never routes documents to an unconfigured backend.
func (c EngineConfig) MimeTypes() map[string]string {
	if !c.Valid() {
		return map[string]string{}
	}
	switch c.Engine {
	case EngineGenericREST:
		return genericRESTMimeTypes
	case EngineVisionDocIntel, EngineBridgeOCR:
		return providerMimeTypes
	}
	return map[string]string{}
}
