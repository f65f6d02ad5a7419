package personrepo

import "errors"

var (
	// ErrNotFound indicates the requested person does not exist.
	ErrNotFound = errors.New("person not found")

	// ErrAlreadyExists indicates a person already exists with the provided ID.
	ErrAlreadyExists = errors.New("person already exists")

	// ErrEmailInUse indicates another person already holds the email address.
	ErrEmailInUse = errors.New("person email already in use")
)
