package engine

import "errors"

var (
	// ErrInvalidPartition indicates a partition outside the recognized set.
	ErrInvalidPartition = errors.New("invalid partition")

	// ErrInvalidModuleID indicates a module id that cannot name a module
	// directory.
	ErrInvalidModuleID = errors.New("invalid module id")

	// ErrStateMissing indicates no mount run has been recorded yet.
	ErrStateMissing = errors.New("no mount run recorded")
)
