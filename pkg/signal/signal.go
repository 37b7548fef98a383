package signal

import (
	"time"

	"github.com/nightchill/checkin-service/pkg/state"
)

// Signal is a normalized domain event carrying the user's context.
// The Processor builds signals from committed check-ins and redemptions;
// the rule engine evaluates them.
type Signal interface {
	// Type returns the signal type identifier (e.g. "check_in").
	Type() string

	// UserID returns the user the signal is about.
	UserID() string

	// Timestamp returns when the underlying event happened.
	Timestamp() time.Time

	// Metadata returns signal-specific values so rules can read them without type assertions.
	Metadata() map[string]interface{}

	// Context returns the user's state at the time of the signal.
	Context() *UserContext
}

// UserContext wraps user state with derived values rules commonly need.
type UserContext struct {
	UserID string
	State  *state.UserState
	Info   map[string]interface{}
}
