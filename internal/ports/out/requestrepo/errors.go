package requestrepo

import "errors"

var (
	// ErrNotFound indicates the requested membership request does not exist.
	ErrNotFound = errors.New("membership request not found")

	// ErrAlreadyExists indicates a request already exists with the provided ID.
	ErrAlreadyExists = errors.New("membership request already exists")

	// ErrAlreadyDecided indicates the request has left the pending state and
	// cannot be decided again.
	ErrAlreadyDecided = errors.New("membership request already decided")
)
