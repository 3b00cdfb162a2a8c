// Package repository defines error types that are reused across multiple
// stores.  These values allow higher layers such as handlers to
// distinguish between different failure scenarios.
package repository

import (
	"errors"
	"fmt"
)

// StorageError reports that the backing store could not be read or written.
// Op names the failed operation (e.g. "read reservations").
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is, or wraps, a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
