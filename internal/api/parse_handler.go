package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/docgate-app/docgate/internal/remoteocr"
)

// parseResponse is returned for a successfully parsed document.
type parseResponse struct {
	ID          string            `json:"id"`
	Parser      string            `json:"parser"`
	MimeType    string            `json:"mime_type"`
	Text        string            `json:"text"`
	Pages       int               `json:"pages,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ArchiveSize int               `json:"archive_size"`
}

// handleParse accepts a multipart document upload, routes it to the
// highest-weight parser claiming its MIME type and returns the extracted
// text.
func (s *Server) handleParse(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file upload",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to open uploaded file",
		})
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to read uploaded file",
		})
	}

	mimeType := resolveMimeType(c.FormValue("mime_type"), fileHeader.Header.Get("Content-Type"), fileHeader.Filename, data)

	parser := s.registry.ParserFor(mimeType)
	if parser == nil {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error":     "no parser supports this document type",
			"mime_type": mimeType,
		})
	}

	id := uuid.New().String()
	log.Info().
		Str("document_id", id).
		Str("parser", parser.Name()).
		Str("mime_type", mimeType).
		Int("size", len(data)).
		Msg("Parsing document")

	result, err := parser.Parse(c.UserContext(), data, mimeType)
	if err != nil {
		return s.parseFailure(c, id, err)
	}

	resp := parseResponse{
		ID:          id,
		Parser:      parser.Name(),
		MimeType:    mimeType,
		Text:        result.Text,
		ArchiveSize: len(result.Archive),
	}
	if mimeType == "application/pdf" {
		if pages, err := s.pdf.PageCount(data); err == nil {
			resp.Pages = pages
		}
		if meta, err := s.pdf.Metadata(data); err == nil && len(meta) > 0 {
			resp.Metadata = meta
		}
	}

	return c.JSON(resp)
}

// parseFailure maps classified gateway failures onto HTTP statuses:
// deterministic mismatches are the client's problem, everything else is a
// bad gateway.
func (s *Server) parseFailure(c *fiber.Ctx, id string, err error) error {
	status := fiber.StatusBadGateway
	kind := remoteocr.KindUnexpected

	var fail *remoteocr.Failure
	if errors.As(err, &fail) {
		kind = fail.Kind
		switch fail.Kind {
		case remoteocr.KindClientError, remoteocr.KindResponseShape:
			status = fiber.StatusUnprocessableEntity
		case remoteocr.KindConfiguration:
			status = fiber.StatusServiceUnavailable
		}
	}

	log.Warn().
		Str("document_id", id).
		Str("kind", string(kind)).
		Err(err).
		Msg("Document parse failed")

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

// resolveMimeType picks the document MIME type from, in order: the explicit
// form field, the upload part's content type, the filename extension, and
// finally content sniffing.
func resolveMimeType(explicit, partType, filename string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	if partType != "" && partType != "application/octet-stream" {
		// Strip any media type parameters.
		if idx := strings.Index(partType, ";"); idx > 0 {
			partType = partType[:idx]
		}
		return strings.TrimSpace(partType)
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if mimeType, ok := extensionMimeTypes[ext]; ok {
			return mimeType
		}
	}
	return http.DetectContentType(data)
}

var extensionMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".heic": "image/heic",
}
