package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError marks a failure worth retrying: a rate-limited or
// overloaded upstream, or the network dropping mid-request.
type TransientError struct {
	Err    error
	Status int
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient upstream error (status %d): %v", e.Status, e.Err)
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable. status is the HTTP status that
// triggered it, or 0 for network-level failures.
func NewTransientError(err error, status int) *TransientError {
	return &TransientError{Err: err, Status: status}
}

// retryableMsgs covers failures that surface only as wrapped strings from
// http.Client and the resolver.
var retryableMsgs = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
}

// IsTransient reports whether err, anywhere in its chain, indicates a
// failure that a retry has a chance of fixing.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range retryableMsgs {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status from a search engine
// or the CRM endpoint is worth retrying.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError && code <= http.StatusGatewayTimeout
}
