package sessionrepo

import "errors"

var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyExists indicates a session already exists with the provided ID.
	ErrAlreadyExists = errors.New("session already exists")
)
