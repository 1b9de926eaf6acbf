package contracts

import "errors"

// Common errors for domain contracts
var (
	// ErrCommitRunNotFound occurs when a journal lookup names an unknown run
	ErrCommitRunNotFound = errors.New("commit run not found")
)
