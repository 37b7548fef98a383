package action

import "errors"

var (
	// ErrRollbackNotSupported indicates that an action cannot be undone.
	ErrRollbackNotSupported = errors.New("rollback not supported for this action")

	// ErrActionNotFound indicates that a requested action is not registered.
	ErrActionNotFound = errors.New("action not found in registry")

	// ErrInvalidConfig indicates that an action's configuration is invalid.
	ErrInvalidConfig = errors.New("invalid action configuration")

	// ErrDependencyMissing indicates that a service an action needs was not wired.
	ErrDependencyMissing = errors.New("action dependency not configured")
)
