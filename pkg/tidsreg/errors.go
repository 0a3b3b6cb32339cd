package tidsreg

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateFormat is returned when a date at the API boundary does
	// not match YYYY-MM-DD (or DD-MM-YYYY for upstream-formatted input).
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrAuthenticationFailed means the login POST succeeded at the HTTP
	// level but Tidsreg never set the AuthTicket cookie.
	ErrAuthenticationFailed = errors.New("authentication failed - no AuthTicket cookie received")

	// ErrWeekComputation is returned when no Monday exists for a (year, week)
	// pair under the ISO-8601 week rules.
	ErrWeekComputation = errors.New("week computation failed")
)

// UpstreamHTTPError reports a non-200 response from Tidsreg.
type UpstreamHTTPError struct {
	Status int
	Reason string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("HTTP request failed: %s", e.Reason)
}

// RetrievalError wraps any fault during hours retrieval that has no more
// specific type. RegisteredHours never lets anything else escape.
type RetrievalError struct {
	Message string
}

func (e *RetrievalError) Error() string {
	return e.Message
}

// StatusOf maps an error to the status code the protocol front-ends report.
// 0 denotes a local, non-HTTP failure.
func StatusOf(err error) int {
	var up *UpstreamHTTPError
	if errors.As(err, &up) {
		return up.Status
	}
	if errors.Is(err, ErrAuthenticationFailed) {
		return 401
	}
	return 0
}
