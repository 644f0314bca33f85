package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// CatalogLoadError is returned when the reference dataset cannot be turned into
// an input catalog: the file is missing or unreadable, has no rows, or lacks a
// required column. Fatal at startup.
type CatalogLoadError struct {
	Path   string
	Column string
	Err    error
}

// NewCatalogLoadError creates a CatalogLoadError. column may be empty.
func NewCatalogLoadError(path, column string, err error) error {
	return crdb.WithStack(&CatalogLoadError{Path: path, Column: column, Err: err})
}

func (e *CatalogLoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("yieldcast: catalog %q: column %s: %v", e.Path, e.Column, e.Err)
	}
	return fmt.Sprintf("yieldcast: catalog %q: %v", e.Path, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// PredictorUnavailableError is returned when the trained pipeline artifact
// cannot be loaded. Fatal at startup.
type PredictorUnavailableError struct {
	Path string
	Err  error
}

// NewPredictorUnavailableError creates a PredictorUnavailableError.
func NewPredictorUnavailableError(path string, err error) error {
	return crdb.WithStack(&PredictorUnavailableError{Path: path, Err: err})
}

func (e *PredictorUnavailableError) Error() string {
	return fmt.Sprintf("yieldcast: predictor %q unavailable: %v", e.Path, e.Err)
}

func (e *PredictorUnavailableError) Unwrap() error { return e.Err }

// InvalidInputError is returned when a caller-supplied value violates a hard
// precondition of the request.
type InvalidInputError struct {
	Field  string
	Value  interface{}
	Reason string
}

// NewInvalidInputError creates an InvalidInputError.
func NewInvalidInputError(field string, value interface{}, reason string) error {
	return crdb.WithStack(&InvalidInputError{Field: field, Value: value, Reason: reason})
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("yieldcast: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// InferenceError is returned when the predictor rejects a feature value it has
// never seen, for example an unsupported crop or state.
type InferenceError struct {
	Field string
	Value string
	Err   error
}

// NewInferenceError creates an InferenceError.
func NewInferenceError(field, value string, err error) error {
	return crdb.WithStack(&InferenceError{Field: field, Value: value, Err: err})
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("yieldcast: unsupported %s %q: not known to the trained model", e.Field, e.Value)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// NumericOverflowError is returned when converting a prediction back to
// physical units produces a non-finite value.
type NumericOverflowError struct {
	Op    string
	Value float64
}

// NewNumericOverflowError creates a NumericOverflowError.
func NewNumericOverflowError(op string, value float64) error {
	return crdb.WithStack(&NumericOverflowError{Op: op, Value: value})
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("yieldcast: %s: result not representable for input %v", e.Op, e.Value)
}

// IsStartupError reports whether err must abort process initialization.
func IsStartupError(err error) bool {
	var catErr *CatalogLoadError
	var predErr *PredictorUnavailableError
	return crdb.As(err, &catErr) || crdb.As(err, &predErr)
}
