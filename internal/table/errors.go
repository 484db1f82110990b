package table

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ParseError.
var (
	ErrEmptyPayload  = errors.New("payload is empty")
	ErrNoTable       = errors.New("no table found in payload")
	ErrTooFewColumns = errors.New("not enough columns")
)

// ParseError is returned when a payload cannot be turned into a table.
type ParseError struct {
	Format string // "csv" or "html"
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse " + e.Format
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(format string, err error, detail string, args ...any) *ParseError {
	return &ParseError{Format: format, Detail: fmt.Sprintf(detail, args...), Err: err}
}
