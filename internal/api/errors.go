package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a backend rejection: a non-2xx response with whatever message the
// backend supplied, or a caller-provided fallback when the body had none.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("attendance api: %s (status %d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a 401 rejection, meaning the cached
// token is no longer accepted and the session should be discarded.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Reason returns the message to show inline in a view: the backend's own
// message for rejections, a transport summary otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "backend unreachable, please try again"
}
