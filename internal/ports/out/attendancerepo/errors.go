package attendancerepo

import "errors"

var (
	// ErrNotFound indicates no matching attendance record exists.
	ErrNotFound = errors.New("attendance record not found")

	// ErrAlreadyExists indicates a record already exists with the provided ID.
	ErrAlreadyExists = errors.New("attendance record already exists")
)
