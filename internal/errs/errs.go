package errs

import "errors"

var (
	// ErrInvalidInput covers empty matrices, mismatched mask dimensions and
	// unknown axes. Nothing is written when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDirectoryConflict is returned when an output target exists as
	// something other than a directory, or cannot be written.
	ErrDirectoryConflict = errors.New("directory conflict")
)
