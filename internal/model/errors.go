package model

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrDataUnavailable marks a regional lookup with no matching row or
	// observation. Callers substitute a documented fallback or propagate.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrExternalTool marks a balance-of-system estimator that could not be
	// run or whose output could not be located or parsed.
	ErrExternalTool = errors.New("external tool failure")

	// ErrInvalidInput marks a rejected TurbineSpec.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCurrencyMismatch marks arithmetic between amounts that are not
	// denominated in the same currency and reference year.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Unavailable returns an ErrDataUnavailable error describing the lookup.
func Unavailable(format string, args ...any) error {
	return eris.Wrap(ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// IsUnavailable reports whether err is (or wraps) ErrDataUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// StageError records which pipeline stage and lookup failed.
type StageError struct {
	Stage  string
	Lookup string
	Err    error
}

func (e *StageError) Error() string {
	if e.Lookup == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Lookup, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageFailure wraps err with the stage and lookup that produced it. A nil
// err returns nil.
func StageFailure(stage, lookup string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Lookup: lookup, Err: err}
}
