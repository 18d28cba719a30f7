// Package storage implements the persistence contracts of the services
// package on MySQL through gorm. Atomicity guarantees lean on conditional
// UPDATEs checked through RowsAffected and on unique indexes, never on
// read-then-write sequences.
package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/kcontext/kcontext/services"
)

// wrap maps a gorm error onto the services error vocabulary. Requires the
// connection to be opened with TranslateError so unique-index violations
// surface as gorm.ErrDuplicatedKey.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return services.ErrDuplicate
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrInsufficientFunds):
		return err
	default:
		return &services.StorageError{Op: op, Err: err}
	}
}
