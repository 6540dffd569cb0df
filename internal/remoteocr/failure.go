package remoteocr

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies a parse failure. Only kinds that plausibly resolve
// on a repeat attempt are retryable.
type FailureKind string

const (
	KindTimeout       FailureKind = "timeout"
	KindServerError   FailureKind = "server_error"
	KindClientError   FailureKind = "client_error"
	KindTransport     FailureKind = "transport_error"
	KindResponseShape FailureKind = "response_shape"
	KindConfiguration FailureKind = "configuration"
	KindUnexpected    FailureKind = "unexpected"
)

// Retryable reports whether another attempt is worthwhile for this kind.
// Client and shape errors indicate a deterministic mismatch and are terminal.
func (k FailureKind) Retryable() bool {
	switch k {
	case KindTimeout, KindServerError, KindTransport:
		return true
	}
	return false
}

// Failure is a classified parse failure surfaced to the ingestion pipeline.
// The message is bounded and suitable for direct logging.
type Failure struct {
	Backend Engine
	Kind    FailureKind
	Message string
	Status  int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Backend, f.Message)
}

// newFailure builds a Failure with a formatted message.
func newFailure(backend Engine, kind FailureKind, format string, args ...any) *Failure {
	return &Failure{
		Backend: backend,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapUnexpected relabels an error that escaped classification, keeping the
// original type name for diagnostics.
func wrapUnexpected(backend Engine, err error) *Failure {
	return newFailure(backend, KindUnexpected, "unexpected error during OCR parsing: %T: %v", err, err)
}

// maxDetailLen bounds server-provided error detail embedded in failure
// messages.
const maxDetailLen = 200

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// errorDetail extracts a human-readable detail from an error response body.
// Structured detail and error_code fields are preferred when the body is
// JSON; otherwise the raw body is used, truncated.
func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail    string `json:"detail"`
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		detail := " - " + truncate(payload.Detail, maxDetailLen)
		if payload.ErrorCode != "" {
			detail += fmt.Sprintf(" (error_code: %s)", payload.ErrorCode)
		}
		return detail
	}

	return " - " + truncate(string(body), maxDetailLen)
}
