package remoteocr

import (
	"context"
	"errors"
	"net"
)

// classifyStatus maps a non-2xx HTTP status code to a failure kind.
func classifyStatus(status int) FailureKind {
	switch {
	case status >= 500:
		return KindServerError
	case status >= 400:
		return KindClientError
	}
	// A non-error status reaching this point means the response violated
	// the backend's contract in some other way.
	return KindResponseShape
}

// classifyTransportError maps a transport-level error (no HTTP response
// received) to a failure kind.
func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
