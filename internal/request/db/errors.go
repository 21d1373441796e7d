package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Sentinels for errors.Is. The concrete error types below match them.
var (
	ErrNotFound             = errors.New("not found")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrValidation           = errors.New("validation failed")
)

// NotFoundError reports an operation on a row that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferentialIntegrityError reports a write that would leave a foreign key
// dangling, or a delete blocked by dependent rows.
type ReferentialIntegrityError struct {
	Constraint string
	Err        error
}

func (e *ReferentialIntegrityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("referential integrity violation on %s", e.Constraint)
	}
	return fmt.Sprintf("referential integrity violation on %s: %v", e.Constraint, e.Err)
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }

func (e *ReferentialIntegrityError) Unwrap() error { return e.Err }

// ValidationError reports a count field outside its allowed range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PostgreSQL SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

// classifyError maps storage engine errors onto the error taxonomy. Errors
// that are already classified, and errors that match no known kind, are
// returned unchanged.
func classifyError(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrReferentialIntegrity) || errors.Is(err, ErrValidation) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation {
		return &ReferentialIntegrityError{Constraint: pqErr.Constraint, Err: err}
	}
	// modernc and mattn sqlite drivers share this message
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return &ReferentialIntegrityError{Constraint: entity + "_foreign_key", Err: err}
	}
	return err
}
