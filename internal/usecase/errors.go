package usecase

import (
	"errors"
	"fmt"
)

// PersistenceError reports a store failure after which the mutation was
// rolled back. The caller may retry the whole operation.
type PersistenceError struct {
	Stage string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Retryable is always true; the store state was restored.
func (e *PersistenceError) Retryable() bool {
	return true
}

// IsPersistenceError reports whether err is, or wraps, a PersistenceError.
func IsPersistenceError(err error) bool {
	var pErr *PersistenceError
	return errors.As(err, &pErr)
}
