package domain

import "errors"

var (
	// ErrNotFound is returned when an update or delete targets an id that does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps every entry validation failure
	ErrValidation = errors.New("validation failed")

	// ErrIO indicates a backup file could not be opened, read or written
	ErrIO = errors.New("i/o failure")

	// ErrParse indicates a backup document is not valid JSON
	ErrParse = errors.New("malformed backup document")

	// ErrUnsupportedVersion indicates a backup was written by a newer format version
	ErrUnsupportedVersion = errors.New("unsupported export version")
)
