package remote

import "errors"

var (
	// ErrProcessNotFound indicates no running process matched the requested name.
	ErrProcessNotFound = errors.New("remote: process not found")
	// ErrModuleNotFound indicates the module is not loaded in the target.
	ErrModuleNotFound = errors.New("remote: module not found")
	// ErrUnsupported indicates the platform has no remote memory backend.
	ErrUnsupported = errors.New("remote: unsupported platform")
)
