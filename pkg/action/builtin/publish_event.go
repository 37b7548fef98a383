package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/signal"
)

const (
	// PublishEventActionID is the type of the event publishing action
	PublishEventActionID = "publish_event"
)

// TriggerEvent is the payload published for a trigger
type TriggerEvent struct {
	UserID    string                 `json:"userId"`
	RuleID    string                 `json:"ruleId"`
	Reason    string                 `json:"reason"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// PublishEventAction publishes the trigger to the event bus, keyed by user.
type PublishEventAction struct {
	config    action.ActionConfig
	publisher service.EventPublisher
	eventType string
}

// NewPublishEventAction creates the action. event_type defaults to the rule id of each trigger.
func NewPublishEventAction(config action.ActionConfig, publisher service.EventPublisher) *PublishEventAction {
	return &PublishEventAction{
		config:    config,
		publisher: publisher,
		eventType: config.GetParameterString("event_type", ""),
	}
}

func (a *PublishEventAction) ID() string {
	return a.config.ID
}

func (a *PublishEventAction) Name() string {
	return "Publish Event"
}

func (a *PublishEventAction) Config() action.ActionConfig {
	return a.config
}

func (a *PublishEventAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	if a.publisher == nil {
		return fmt.Errorf("%w: event publisher", action.ErrDependencyMissing)
	}

	eventType := a.eventType
	if eventType == "" {
		eventType = trigger.RuleID
	}

	return a.publisher.Publish(ctx, eventType, trigger.UserID, TriggerEvent{
		UserID:    trigger.UserID,
		RuleID:    trigger.RuleID,
		Reason:    trigger.Reason,
		Metadata:  trigger.Metadata,
		Timestamp: trigger.Timestamp,
	})
}

// Rollback is not supported; published events cannot be recalled.
func (a *PublishEventAction) Rollback(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	return action.ErrRollbackNotSupported
}
