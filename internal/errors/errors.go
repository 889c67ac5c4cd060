package errors

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NotFound indicates the identified row does not exist
	NotFound ErrorCode = "NOT_FOUND"
	// AlreadyExists indicates a row with the same natural key exists
	AlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ConstraintViolation indicates the engine rejected a write that would break referential integrity
	ConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	// MalformedInput indicates input failed shape validation before reaching the engine
	MalformedInput ErrorCode = "MALFORMED_INPUT"
	// StorageUnavailable indicates the database file could not be opened, locked or written
	StorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	// Unknown indicates an unexpected failure
	Unknown ErrorCode = "UNKNOWN"
)

// Alertable reports whether failures with this code must reach the operator.
// Business outcomes never do.
func (c ErrorCode) Alertable() bool {
	return c == StorageUnavailable || c == Unknown
}

// Canceled reports whether err comes from the caller abandoning the
// operation, e.g. Ctrl-C in a console. Such failures are not paged.
func Canceled(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

// Error is a revue error with a stable code
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a new Error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: NotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code carried by err, classifying it if it is not already an *Error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return Classify(err)
}

// Classify maps a storage engine error onto the taxonomy.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, sql.ErrConnDone) || stderrors.Is(err, sql.ErrTxDone) {
		return StorageUnavailable
	}

	var se *sqlite.Error
	if stderrors.As(err, &se) {
		return classifySqliteCode(se.Code(), se.Error())
	}

	// Some driver paths flatten the error into text.
	return classifyMessage(err.Error())
}

func classifySqliteCode(code int, msg string) ErrorCode {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return AlreadyExists
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK,
		sqlite3.SQLITE_CONSTRAINT_NOTNULL, sqlite3.SQLITE_CONSTRAINT_TRIGGER:
		return ConstraintViolation
	}

	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		if c := classifyMessage(msg); c != Unknown {
			return c
		}
		return ConstraintViolation
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY,
		sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_PERM:
		return StorageUnavailable
	}
	return Unknown
}

func classifyMessage(msg string) ErrorCode {
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return AlreadyExists
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return ConstraintViolation
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "disk I/O error"),
		strings.Contains(msg, "readonly database"),
		strings.Contains(msg, "file is not a database"):
		return StorageUnavailable
	}
	return Unknown
}
