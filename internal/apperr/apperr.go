// Package apperr defines the error kinds returned by the kanban services.
//
// Every error produced by the services either wraps one of the sentinel kinds
// below or is an infrastructure failure. Callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInconsistentState    = errors.New("inconsistent state")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("conflict")
)

// kindError formats as its message but unwraps to the kind sentinel.
type kindError struct {
	message string
	kind    error
}

func (e *kindError) Error() string {
	return e.message
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func newf(kind error, format string, args ...any) error {
	if len(args) == 0 {
		return &kindError{message: format, kind: kind}
	}
	return &kindError{message: fmt.Sprintf(format, args...), kind: kind}
}

// NotFoundf returns an error that unwraps as ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

// Forbiddenf returns an error that unwraps as ErrForbidden.
func Forbiddenf(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

// InvalidOperationf returns an error that unwraps as ErrInvalidOperation.
func InvalidOperationf(format string, args ...any) error {
	return newf(ErrInvalidOperation, format, args...)
}

// InvalidConfigurationf returns an error that unwraps as ErrInvalidConfiguration.
func InvalidConfigurationf(format string, args ...any) error {
	return newf(ErrInvalidConfiguration, format, args...)
}

// InconsistentStatef returns an error that unwraps as ErrInconsistentState.
func InconsistentStatef(format string, args ...any) error {
	return newf(ErrInconsistentState, format, args...)
}

// InvalidArgumentf returns an error that unwraps as ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return newf(ErrInvalidArgument, format, args...)
}

// Conflictf returns an error that unwraps as ErrConflict.
func Conflictf(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

// Kind returns the sentinel kind wrapped by err, or nil for infrastructure errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrForbidden,
		ErrInvalidOperation,
		ErrInvalidConfiguration,
		ErrInconsistentState,
		ErrInvalidArgument,
		ErrConflict,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
