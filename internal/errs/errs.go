// Package errs provides standardized error types for the analytics job, with
// operation context, an error kind matching the job's failure taxonomy, and
// error wrapping support.
package errs

import (
	"fmt"
)

// Kind classifies a failure for per-task status reporting.
type Kind int

const (
	// KindInput covers missing/unreadable files and schema mismatches.
	KindInput Kind = iota
	// KindTransform covers unexpected nulls or types in columns a task needs.
	KindTransform
	// KindWrite covers unwritable destinations, files or catalog.
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTransform:
		return "transform"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// AnalyticsError is the standard error across loader, engine and writers.
type AnalyticsError struct {
	Kind    Kind
	Op      string // operation name, e.g. "Join", "ReadParquet", "WriteCatalog"
	Column  string // column name if applicable
	Path    string // file path if applicable
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AnalyticsError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("%s failed on column %q: %s", e.Op, e.Column, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s failed for %q: %s", e.Op, e.Path, e.Message)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *AnalyticsError) Unwrap() error {
	return e.Cause
}

// Is matches errors by kind, operation and column.
func (e *AnalyticsError) Is(target error) bool {
	if t, ok := target.(*AnalyticsError); ok {
		return e.Kind == t.Kind && e.Op == t.Op && e.Column == t.Column && e.Message == t.Message
	}
	return false
}

// NewInputError creates an input error carrying the offending path.
func NewInputError(op, path string, cause error) *AnalyticsError {
	msg := "input unreadable"
	if cause != nil {
		msg = cause.Error()
	}
	return &AnalyticsError{Kind: KindInput, Op: op, Path: path, Message: msg, Cause: cause}
}

// NewSchemaError creates an input error for a schema mismatch.
func NewSchemaError(op, path, message string) *AnalyticsError {
	return &AnalyticsError{Kind: KindInput, Op: op, Path: path, Message: message}
}

// NewColumnNotFound creates a transform error for a missing column.
func NewColumnNotFound(op, column string) *AnalyticsError {
	return &AnalyticsError{Kind: KindTransform, Op: op, Column: column, Message: "column does not exist"}
}

// NewTransformError creates a transform error without column context.
func NewTransformError(op, message string) *AnalyticsError {
	return &AnalyticsError{Kind: KindTransform, Op: op, Message: message}
}

// NewTransformErrorForColumn creates a transform error naming the column.
func NewTransformErrorForColumn(op, column, message string) *AnalyticsError {
	return &AnalyticsError{Kind: KindTransform, Op: op, Column: column, Message: message}
}

// NewWriteError creates a write error for the given destination.
func NewWriteError(op, destination string, cause error) *AnalyticsError {
	msg := "destination unwritable"
	if cause != nil {
		msg = cause.Error()
	}
	return &AnalyticsError{Kind: KindWrite, Op: op, Path: destination, Message: msg, Cause: cause}
}
