package provider

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/mrlokans/symptomchecker/internal/router"
)

// Error taxonomy of the provider. Check with errors.Is:
//
//	if errors.Is(err, provider.ErrValidation) {
//	    var verr *provider.ValidationError
//	    errors.As(err, &verr) // verr.Column names the offending column
//	}
var (
	// ErrUnroutableResource is returned when a path matches no registered entity.
	ErrUnroutableResource = router.ErrUnroutableResource

	// ErrUnsupportedOperation is returned when an operation is not allowed for
	// the addressed resource, e.g. an insert on a single item.
	ErrUnsupportedOperation = errors.New("provider: unsupported operation")

	// ErrValidation is wrapped by every ValidationError and by
	// ErrInvalidExpression failures.
	ErrValidation = errors.New("provider: validation failed")

	// ErrInvalidExpression is returned when a filter or order is not a single
	// SQL expression.
	ErrInvalidExpression = errors.New("provider: invalid expression")

	// ErrStorage is wrapped by every StorageError.
	ErrStorage = errors.New("provider: storage failure")
)

type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("provider: column %q %s", e.Column, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StorageError reports that SQLite failed to complete an operation. Code is
// set when the failure came from the SQLite driver.
type StorageError struct {
	Op       string
	Resource string
	Code     sqlite3.ErrNo
	Err      error
}

func newStorageError(op, resource string, err error) *StorageError {
	se := &StorageError{Op: op, Resource: resource, Err: err}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		se.Code = sqliteErr.Code
	}
	return se
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("provider: %s %s failed: %v", e.Op, e.Resource, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// IsConstraint reports whether SQLite rejected the statement on a constraint.
func (e *StorageError) IsConstraint() bool {
	return e.Code == sqlite3.ErrConstraint
}

func unsupported(op, path string) error {
	return fmt.Errorf("%w: %s on %q", ErrUnsupportedOperation, op, path)
}
