package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeMalformedRow  = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeInvalidAmount = "ERR_IMPORT_INVALID_AMOUNT"
)

var (
	// ErrEmptyFile is returned when the spreadsheet is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the spreadsheet is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the spreadsheet has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the spreadsheet has a header but no rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")

	// ErrMissingColumns is returned when a required column is absent
	ErrMissingColumns = errors.New("CSV file missing required columns")

	// ErrUnsupportedModule is returned for a module type with no column layout
	ErrUnsupportedModule = errors.New("unsupported module type")
)

// MissingColumnsError lists the required columns a file lacks
type MissingColumnsError struct {
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnsError) Error() string {
	return ErrMissingColumns.Error() + ": " + strings.Join(e.Columns, ", ")
}

// Unwrap makes errors.Is match ErrMissingColumns
func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}

// RowError is a problem with one cell. The row is still previewed with the
// offending field left out.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection accumulates row errors up to a limit, still counting the
// ones it drops
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection creates a collection keeping at most maxErrors errors.
// A non-positive limit keeps everything.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if ec.maxErrors > 0 && len(ec.errors) >= ec.maxErrors {
		return
	}
	ec.errors = append(ec.errors, err)
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns every error added, including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > len(ec.errors)
}

// String summarises the collection on one line
func (ec *ErrorCollection) String() string {
	if ec.total == 0 {
		return "no errors"
	}
	parts := make([]string, 0, len(ec.errors))
	for _, e := range ec.errors {
		parts = append(parts, e.Error())
	}
	s := strings.Join(parts, "; ")
	if ec.IsTruncated() {
		s += fmt.Sprintf(" (and %d more)", ec.total-len(ec.errors))
	}
	return s
}
