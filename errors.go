package sheetdb

import (
	"errors"

	"github.com/zeebo/errs"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrValidation     = errors.New("validation failed")
	ErrHeaderMismatch = errors.New("header mismatch")
	ErrConflict       = errors.New("record was modified concurrently")
	ErrTableMissing   = errors.New("table does not exist")
	ErrClosed         = errors.New("store is closed")
)

// TransportError classifies every failure reported by the Transport.
var TransportError = errs.Class("transport")

// ValidationError is returned when a record is rejected before any write.
type ValidationError struct {
	Table string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Table + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DecodeWarning describes a cell that could not be decoded as its declared
// type. The raw value is kept and the row is still returned.
type DecodeWarning struct {
	Column string
	Value  string
	Reason string
}

func (w DecodeWarning) String() string {
	return w.Column + ": " + w.Reason + " (" + w.Value + ")"
}
