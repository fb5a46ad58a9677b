package fflags

import "errors"

var (
	// ErrFlagNotFound indicates the registry has no flag with the given name.
	ErrFlagNotFound = errors.New("fflags: flag not found")
	// ErrUnregistered indicates the flag exists but was never bound to storage.
	ErrUnregistered = errors.New("fflags: unregistered accessor")
	// ErrInvalidValue indicates a value that cannot be stored in the flag's kind.
	ErrInvalidValue = errors.New("fflags: invalid value")
	// ErrKindMismatch indicates a string write aimed at a non-string record.
	ErrKindMismatch = errors.New("fflags: kind mismatch")
	// ErrEmptyName indicates an identifier that is nothing but a prefix.
	ErrEmptyName = errors.New("fflags: empty name")
)
