// Package errors provides the error types used throughout yieldcast.
//
// The package wraps github.com/cockroachdb/errors so that every error created
// here carries a stack trace (visible with the %+v verb) while remaining fully
// compatible with the standard library's errors.Is / errors.As / errors.Unwrap.
//
// Two families of errors live here:
//
//   - Estimator errors (NotFittedError, DimensionError, ValueError, ModelError,
//     ValidationError) raised by the preprocessing and regression layers.
//   - Forecast errors (CatalogLoadError, PredictorUnavailableError,
//     InvalidInputError, InferenceError, NumericOverflowError) that form the
//     public failure taxonomy of a prediction request.
//
// Startup errors (CatalogLoadError, PredictorUnavailableError) are fatal: a
// process that sees one must not serve requests. The remaining forecast errors
// are per-request and describe the offending field and value without exposing
// model internals.
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	// ErrNotImplemented marks functionality that is not available.
	ErrNotImplemented = crdb.New("not implemented")

	// ErrEmptyData is returned when an operation receives no samples or features.
	ErrEmptyData = crdb.New("empty data")

	// ErrSingularMatrix is returned when a matrix cannot be inverted.
	ErrSingularMatrix = crdb.New("singular matrix")

	// ErrUnknownCategory is returned when a categorical value was not seen during training.
	ErrUnknownCategory = crdb.New("unknown category")
)

// New creates an error with a stack trace.
func New(msg string) error { return crdb.New(msg) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return crdb.Newf(format, args...) }

// Wrap annotates err with msg. Returns nil if err is nil.
func Wrap(err error, msg string) error { return crdb.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdb.Wrapf(err, format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return crdb.WithStack(err) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return crdb.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return crdb.As(err, target) }

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error { return crdb.UnwrapOnce(err) }

// Recover converts a panic into an error assigned to *errp.
// It must be deferred directly:
//
//	func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
//	    defer errors.Recover(&err, "OneHotEncoder.Transform")
//	    ...
//	}
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*errp = crdb.Wrapf(e, "%s: panic", op)
			return
		}
		*errp = crdb.Newf("%s: panic: %v", op, r)
	}
}

// NotFittedError is returned when an estimator is used before it has been fitted or loaded.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return crdb.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("yieldcast: %s: this instance is not fitted yet. Call Fit or load a model before %s", e.ModelName, e.Method)
}

// DimensionError is returned when matrix or slice dimensions do not match.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return crdb.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("yieldcast: %s: dimension mismatch on axis %d: expected %d, got %d", e.Op, e.Axis, e.Expected, e.Got)
}

// ValueError is returned when an argument has the right type but an invalid value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return crdb.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("yieldcast: %s: %s", e.Op, e.Message)
}

// ModelError describes a failure inside a model operation and wraps its cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError creates a ModelError.
func NewModelError(op, kind string, err error) error {
	return crdb.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("yieldcast: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ValidationError is returned when a parameter fails validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError creates a ValidationError.
func NewValidationError(paramName, reason string, value interface{}) error {
	return crdb.WithStack(&ValidationError{ParamName: paramName, Reason: reason, Value: value})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("yieldcast: invalid %s (%v): %s", e.ParamName, e.Value, e.Reason)
}
