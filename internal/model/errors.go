package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a listing or report ID does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is a rejected input. The operation made no state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid returns a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PermissionError is an action attempted without the required role or ownership.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "not allowed to " + e.Action
}

// Forbidden returns a PermissionError for action.
func Forbidden(action string) error {
	return &PermissionError{Action: action}
}

// StorageReadError is malformed persisted data. Readers recover from it by
// falling back to an empty collection.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// ImageError is a single uploaded file that could not be used.
type ImageError struct {
	File string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.File, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPermission reports whether err is (or wraps) a PermissionError.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
