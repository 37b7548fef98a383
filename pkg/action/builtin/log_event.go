package builtin

import (
	"context"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

const (
	// LogEventActionID is the type of the logging action
	LogEventActionID = "log_event"
)

// LogEventAction writes a structured log entry for the trigger.
type LogEventAction struct {
	config  action.ActionConfig
	message string
	level   logrus.Level
}

// NewLogEventAction creates the action. level defaults to info.
func NewLogEventAction(config action.ActionConfig) *LogEventAction {
	level, err := logrus.ParseLevel(config.GetParameterString("level", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	return &LogEventAction{
		config:  config,
		message: config.GetParameterString("message", "engagement rule triggered"),
		level:   level,
	}
}

func (a *LogEventAction) ID() string {
	return a.config.ID
}

func (a *LogEventAction) Name() string {
	return "Log Event"
}

func (a *LogEventAction) Config() action.ActionConfig {
	return a.config
}

func (a *LogEventAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	fields := logrus.Fields{
		"user_id": trigger.UserID,
		"rule_id": trigger.RuleID,
		"reason":  trigger.Reason,
	}
	for k, v := range trigger.Metadata {
		fields[k] = v
	}
	if userCtx != nil {
		for k, v := range userCtx.Info {
			fields[k] = v
		}
	}

	logrus.WithFields(fields).Log(a.level, a.message)
	return nil
}

// Rollback is a no-op; a log line does not need undoing.
func (a *LogEventAction) Rollback(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	return nil
}
