package profilerepo

import "errors"

var (
	// ErrNotFound indicates no membership profile exists for the person.
	ErrNotFound = errors.New("membership profile not found")

	// ErrAlreadyExists indicates the person already has a membership profile.
	ErrAlreadyExists = errors.New("membership profile already exists")
)
