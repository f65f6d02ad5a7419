package planrepo

import "errors"

var (
	// ErrNotFound indicates the requested plan does not exist.
	ErrNotFound = errors.New("plan not found")

	// ErrAlreadyExists indicates a plan already exists with the provided ID.
	ErrAlreadyExists = errors.New("plan already exists")

	// ErrNameInUse indicates another plan already holds the name.
	ErrNameInUse = errors.New("plan name already in use")

	// ErrInUse indicates the plan is referenced by at least one membership
	// profile and cannot be deleted.
	ErrInUse = errors.New("plan is referenced by members")
)
