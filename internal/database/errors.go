package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PersistenceError reports a failed read or write against the bazaar store.
// Op names the repository operation, Code carries the Postgres server error
// code when the driver supplied one.
type PersistenceError struct {
	Op   string
	Code string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("database: %s failed with code %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("database: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newPersistenceError(op string, err error) *PersistenceError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PersistenceError{Op: op, Code: string(pqErr.Code), Err: err}
	}
	return &PersistenceError{Op: op, Err: err}
}
