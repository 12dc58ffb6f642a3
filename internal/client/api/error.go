package api

import (
	"errors"
	"fmt"
)

// Error is a non-2xx server reply, carrying the envelope's code and message
// alongside the HTTP status so callers can branch on either.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// StatusOf extracts the HTTP status from err, or 0 when err is not a server
// reply (network failure, cancelled context).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf extracts the server-sent message from err, or "" when there is
// none.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
