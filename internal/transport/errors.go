package transport

import (
	"fmt"
	"net/http"
)

// StatusError is returned by middleware that turns a response into an error.
// It keeps the fully read response so callers can still use it.
type StatusError struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with status %d %s", e.Status, http.StatusText(e.Status))
}
