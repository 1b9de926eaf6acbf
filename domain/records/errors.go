package records

import "errors"

var (
	// ErrInvalidArgument is returned when an operation receives an argument it cannot act on
	// (empty find text, missing identifier). State is left unchanged.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRecordNotFound is returned when a key is not part of the loaded batch
	ErrRecordNotFound = errors.New("record not found")

	// ErrFieldNotFound is returned when a record carries no field with the requested name
	ErrFieldNotFound = errors.New("field not found")

	// ErrCommitInProgress is returned for mutations attempted while a batch commit holds the store
	ErrCommitInProgress = errors.New("commit in progress")
)

// ErrRemoteFailure marks errors raised by a remote data source or writer. The core only
// checks whether it occurred, never its internals.
var ErrRemoteFailure = errors.New("remote failure")
