package rule

import (
	"context"
	"time"

	"github.com/nightchill/checkin-service/pkg/signal"
)

// Rule decides whether a signal should trigger follow-up actions.
type Rule interface {
	// ID returns the configured rule identifier.
	ID() string

	// Name returns a human-readable rule name.
	Name() string

	// SignalTypes returns the signal types the rule evaluates. Empty means all.
	SignalTypes() []string

	// Evaluate returns true and a trigger when the signal matches.
	// A non-nil error is reserved for failures, not for mismatches.
	Evaluate(ctx context.Context, sig signal.Signal) (bool, *Trigger, error)

	// Config returns the rule's configuration.
	Config() RuleConfig
}

// Trigger is a rule match handed to the action executor.
type Trigger struct {
	RuleID    string                 // rule that matched
	UserID    string                 // user the signal was about
	Timestamp time.Time              // when the rule matched
	Reason    string                 // human-readable reason
	Metadata  map[string]interface{} // values actions may read
	Priority  int                    // higher runs first
}

// NewTrigger creates a trigger stamped with the current time.
func NewTrigger(ruleID, userID, reason string, priority int) *Trigger {
	return &Trigger{
		RuleID:    ruleID,
		UserID:    userID,
		Timestamp: time.Now(),
		Reason:    reason,
		Metadata:  make(map[string]interface{}),
		Priority:  priority,
	}
}

// WithMetadata sets a metadata value and returns the trigger for chaining.
func (t *Trigger) WithMetadata(key string, value interface{}) *Trigger {
	t.Metadata[key] = value
	return t
}

// GetString returns a string metadata value or "".
func (t *Trigger) GetString(key string) string {
	if v, ok := t.Metadata[key].(string); ok {
		return v
	}
	return ""
}
