package store

import "errors"

var (
	// ErrStorageUnavailable reports that the task file could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptStore reports that the task file exists but its content is
	// not a valid task collection. The file is left untouched.
	ErrCorruptStore = errors.New("corrupt store")
)
