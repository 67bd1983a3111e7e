package domain

import "errors"

var (
	// ErrValidation marks fatal input errors that are never retried.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups that matched no record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks writes rejected because of the record's current state.
	ErrConflict = errors.New("conflict")
)
