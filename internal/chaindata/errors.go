package chaindata

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetriesExhausted wraps the last transport error once every retry
// attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is a non-2xx response from the upstream API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// Transient reports whether the status is worth retrying. Rate
// limiting and server-side failures are, other client errors are not.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// transient reports whether err deserves another attempt. Anything
// that never reached the server (timeouts, connection resets) does;
// status errors decide for themselves.
func transient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	return true
}
