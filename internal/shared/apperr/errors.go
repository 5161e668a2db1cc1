package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError carries every rule violation found for one request, in the
// order the rules were evaluated.
type ValidationError struct {
	Messages []string
}

func Validation(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// IngestionError wraps an image decode, encode or filesystem failure.
type IngestionError struct {
	Err error
}

func Ingestion(err error) *IngestionError {
	return &IngestionError{Err: err}
}

func (e *IngestionError) Error() string {
	return "image ingestion failed: " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error { return e.Err }

// PersistenceError wraps a durable store failure. These are never retried.
type PersistenceError struct {
	Err error
}

func Persistence(err error) *PersistenceError {
	return &PersistenceError{Err: err}
}

func (e *PersistenceError) Error() string {
	return "persistence failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports a referenced record that no longer exists.
type NotFoundError struct {
	Resource string
	ID       string
}

func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsIngestion(err error) bool {
	var ie *IngestionError
	return errors.As(err, &ie)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
