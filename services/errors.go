package services

import (
	"errors"
	"fmt"
)

// Domain conditions callers are expected to branch on with errors.Is.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAlreadyCheckedIn    = errors.New("already checked in today")
	ErrAlreadyCompleted    = errors.New("mission already completed")
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("record already exists")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrMalformedAnalysis   = errors.New("malformed analysis response")
)

// StorageError marks a persistence-layer failure so callers can tell an
// unavailable datastore apart from domain conditions such as ErrNotFound.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err originated in the persistence layer.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
