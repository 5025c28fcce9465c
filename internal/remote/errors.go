package remote

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransientError marks a failure worth retrying: the server was unreachable,
// timed out, or answered with a status that signals temporary trouble.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient server error: status %d", e.Status)
	}
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RejectionError marks a definitive refusal by the server. Retrying the same
// payload would only be refused again.
type RejectionError struct {
	Status int
	Body   string
}

func (e *RejectionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server rejected request: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server rejected request: status %d", e.Status)
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// statusError classifies a non-2xx response.
func statusError(status int, body string) error {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500 {
		return &TransientError{Status: status}
	}
	return &RejectionError{Status: status, Body: body}
}
