// Package gates defines the domain model for border gate traffic data:
// date ranges, the raw data matrix scraped from the upstream table, and
// the gate-name filter.
package gates

import (
	"errors"
	"fmt"
	"time"
)

// WireFormat is the DD-MM-YYYY date layout used by the upstream source
// and the public API (e.g., "15-12-2024").
const WireFormat = "02-01-2006"

// ErrInvalidRange indicates the start date is after the end date.
var ErrInvalidRange = errors.New("start date must be before or equal to end date")

// DateRange is the canonical internal representation of a queried date range.
// The routing layer parses wire-format strings into it; the core only ever
// sees validated ranges.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a DD-MM-YYYY date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(WireFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY", s)
	}
	return t, nil
}

// ParseRange parses two wire-format dates into a DateRange.
// The range is not validated; call Validate separately so callers can
// distinguish format errors from ordering errors.
func ParseRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

// Validate rejects ranges where the start date is after the end date.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvalidRange
	}
	return nil
}

// StartString returns the start date in wire format.
func (r DateRange) StartString() string {
	return r.Start.Format(WireFormat)
}

// EndString returns the end date in wire format.
func (r DateRange) EndString() string {
	return r.End.Format(WireFormat)
}

// Row is one border gate's record as scraped from the upstream table.
// Column 0 is the gate name; the remaining columns (destination country,
// density, wait time, timestamp) are carried opaquely.
type Row []string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Matrix is an ordered sequence of gate rows produced by one parse.
// Matrices handed out by the cache or the pipeline are always clones,
// so callers can never mutate shared state.
type Matrix []Row

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = row.Clone()
	}
	return out
}

// ApproxSize returns the approximate in-memory size of the matrix in bytes,
// counting cell contents only. Used for cache statistics, never for eviction.
func (m Matrix) ApproxSize() int {
	size := 0
	for _, row := range m {
		for _, cell := range row {
			size += len(cell)
		}
	}
	return size
}
