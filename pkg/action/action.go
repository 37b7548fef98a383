package action

import (
	"context"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
)

// Action reacts to a rule trigger.
type Action interface {
	// ID returns the configured action identifier.
	ID() string

	// Name returns a human-readable action name.
	Name() string

	// Execute performs the action for the trigger.
	Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error

	// Rollback undoes a successful Execute when a later action in the same
	// trigger fails. Actions that cannot be undone return ErrRollbackNotSupported.
	Rollback(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error

	// Config returns the action's configuration.
	Config() ActionConfig
}

// ActionResult is the outcome of one action execution.
type ActionResult struct {
	ActionID string
	Success  bool
	Error    error
	Attempts int
}

// NewActionResult creates a successful result.
func NewActionResult(actionID string, attempts int) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  true,
		Attempts: attempts,
	}
}

// NewActionError creates a failed result.
func NewActionError(actionID string, attempts int, err error) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  false,
		Error:    err,
		Attempts: attempts,
	}
}
