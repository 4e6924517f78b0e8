package traffic

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error classification surfaced to the
// routing layer.
type Code string

const (
	// CodeInvalidDateRange means the start date is after the end date.
	CodeInvalidDateRange Code = "INVALID_DATE_RANGE"

	// CodeDataSourceError means the upstream page could not be fetched or
	// carried no data table.
	CodeDataSourceError Code = "DATA_SOURCE_ERROR"

	// CodeNoDataFound means the page parsed but yielded no gate rows.
	CodeNoDataFound Code = "NO_DATA_FOUND"

	// CodeInternal means an unexpected failure inside the pipeline.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a pipeline failure with a stable code and a human-readable
// message. The routing layer maps codes to transport-level statuses.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code carried by err, or CodeInternal when err is not
// a pipeline error.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}
