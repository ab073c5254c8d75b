package sqlfixture

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// InsertError is returned when a row cannot be inserted.
type InsertError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *InsertError) Error() string {
	return fmt.Sprintf("sqlfixture: inserting into %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *InsertError) Unwrap() error {
	return e.Err
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// errorCoder is an interface for database errors that provide error codes.
type errorCoder interface {
	Code() string
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. a fixture reusing a unique email across builds.
func IsUniqueConstraintError(err error) bool {
	return violates(err, []string{pgUniqueViolation}, []uint16{mysqlDuplicateEntry},
		"Error 1062",                 // MySQL
		"violates unique constraint", // Postgres
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. a fixture referencing a parent row that was built but never created.
func IsForeignKeyConstraintError(err error) bool {
	return violates(err, []string{pgForeignKeyViolation}, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"Error 1451",                      // MySQL
		"Error 1452",                      // MySQL
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return violates(err, []string{pgCheckViolation}, []uint16{mysqlCheckConstraintViolate},
		"Error 3819",                // MySQL
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	)
}

// violates matches err against SQLSTATE codes, MySQL error numbers and,
// for drivers implementing neither, message fragments.
func violates(err error, states []string, numbers []uint16, fragments ...string) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && slices.Contains(states, e.SQLState()) {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && slices.Contains(states, e.Code()) {
		return true
	}
	if e, ok := asError[errorNumberer](err); ok && slices.Contains(numbers, e.Number()) {
		return true
	}
	return containsAny(err.Error(), fragments...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
