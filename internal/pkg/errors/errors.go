package errors

import "errors"

var (
	// ErrNotFound is returned when a planner record, plan or course does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument flags caller input rejected before it reaches the engine.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a save loses an optimistic version check.
	ErrConflict = errors.New("conflict")
)
