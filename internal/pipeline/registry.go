// Package pipeline routes documents to parsers. Parsers advertise the MIME
// types they claim and a selection weight; for a given type the
// highest-weight parser wins, letting a configured remote backend take
// precedence over the local fallback.
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/docgate-app/docgate/internal/remoteocr"
)

// Parser is a document parser the pipeline can route to.
type Parser interface {
	// Name identifies the parser in logs and API responses.
	Name() string

	// Parse extracts text (and an optional archive rendition) from the
	// document.
	Parse(ctx context.Context, data []byte, mimeType string) (*remoteocr.Result, error)

	// SupportedMimeTypes maps claimed MIME types to file extensions. An
	// empty map withdraws the parser from routing.
	SupportedMimeTypes() map[string]string

	// Weight breaks ties when multiple parsers claim the same MIME type;
	// higher wins.
	Weight() int
}

// Registry holds the registered parsers. Registration happens at startup;
// lookups afterwards are read-only and need no locking.
type Registry struct {
	parsers []Parser
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
	log.Info().
		Str("parser", p.Name()).
		Int("weight", p.Weight()).
		Int("mime_types", len(p.SupportedMimeTypes())).
		Msg("Parser registered")
}

// ParserFor returns the highest-weight parser claiming the MIME type, or nil
// when no parser supports it.
func (r *Registry) ParserFor(mimeType string) Parser {
	var best Parser
	for _, p := range r.parsers {
		if _, ok := p.SupportedMimeTypes()[mimeType]; !ok {
			continue
		}
		if best == nil || p.Weight() > best.Weight() {
			best = p
		}
	}
	return best
}

// SupportedMimeTypes returns the union of all registered parsers' MIME maps.
func (r *Registry) SupportedMimeTypes() map[string]string {
	merged := map[string]string{}
	for _, p := range r.parsers {
		for mimeType, ext := range p.SupportedMimeTypes() {
			merged[mimeType] = ext
		}
	}
	return merged
}
