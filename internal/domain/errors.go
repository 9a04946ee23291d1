// Package domain defines core types, ports, and errors for the lakehouse
// metadata catalog and query planner.
package domain

import "fmt"

// NotFoundError indicates a table, column, or glossary lookup miss.
// Lookup misses are recoverable local conditions; callers branch on them
// with errors.As, they are never fatal.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnreachableError indicates no join path exists within the hop bound.
// It is a normal planning outcome, not an exception: graph queries report it
// as an explicit result and the caller decides whether to fall back to an
// unconstrained join or abort.
type UnreachableError struct {
	From    string
	To      string
	MaxHops int
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("no join path from %q to %q within %d hops", e.From, e.To, e.MaxHops)
}

// NoRelevantTablesError indicates planning cannot proceed because no
// registered table survived discovery. It is the only terminal planning
// failure, distinct from UnreachableError.
type NoRelevantTablesError struct {
	Layer   Layer
	Request string
}

func (e *NoRelevantTablesError) Error() string {
	return fmt.Sprintf("no relevant tables found in layer %q for request %q", e.Layer, e.Request)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnreachable creates an UnreachableError for the given endpoints.
func ErrUnreachable(from, to string, maxHops int) *UnreachableError {
	return &UnreachableError{From: from, To: to, MaxHops: maxHops}
}

// ErrNoRelevantTables creates a NoRelevantTablesError for the given layer.
func ErrNoRelevantTables(layer Layer, request string) *NoRelevantTablesError {
	return &NoRelevantTablesError{Layer: layer, Request: request}
}
