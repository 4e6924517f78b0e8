package scraper

import (
	"errors"
	"fmt"
)

// Kind classifies a scrape failure.
type Kind string

const (
	// KindTimeout means the upstream did not respond within the fetch timeout.
	KindTimeout Kind = "timeout"

	// KindUpstreamStatus means the upstream responded with a non-2xx status.
	KindUpstreamStatus Kind = "upstream_status"

	// KindTransport means the request failed below HTTP (DNS, connect, TLS).
	KindTransport Kind = "transport"

	// KindNoTable means the page was fetched but contains no data table.
	KindNoTable Kind = "no_table"

	// KindNoData means the table was found but yielded no usable rows.
	KindNoData Kind = "no_data"
)

// Error is a typed scrape failure. Callers discriminate on Kind rather
// than parsing messages.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scrape %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("scrape %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("scrape %s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is a scraper error, or "" otherwise.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Unavailable reports whether err represents upstream unavailability
// (timeout, bad status, or transport failure) as opposed to a page that
// was fetched but could not be used.
func Unavailable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindUpstreamStatus, KindTransport:
		return true
	default:
		return false
	}
}
