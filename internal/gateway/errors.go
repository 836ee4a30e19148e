package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports that a request never produced an HTTP response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("graphql transport error (%s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a non-2xx HTTP status.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("graphql api error (%d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("graphql api error (%d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status usually clears on its own.
func (e *ProtocolError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable classifies err for retry policies: transport failures and
// throttling/server-side protocol failures are retryable.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Retryable()
	}
	return false
}
