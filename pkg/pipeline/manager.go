package pipeline

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Manager runs domain events through the engagement pipeline:
// Event → Signal → Rules → Actions
type Manager struct {
	processor   *signal.Processor
	engine      *rule.Engine
	executor    *action.Executor
	ruleActions map[string][]string
}

// NewManager creates a pipeline manager. ruleActions maps rule ids to the action ids they run.
func NewManager(processor *signal.Processor, engine *rule.Engine, executor *action.Executor, ruleActions map[string][]string) *Manager {
	if ruleActions == nil {
		ruleActions = make(map[string][]string)
	}

	return &Manager{
		processor:   processor,
		engine:      engine,
		executor:    executor,
		ruleActions: ruleActions,
	}
}

// Process converts the event to a signal, evaluates rules and runs the mapped actions.
// Action failures are logged and rolled back per trigger; only signal and rule
// failures are returned.
func (m *Manager) Process(ctx context.Context, eventType string, event interface{}) error {
	sig, err := m.processor.Process(ctx, eventType, event)
	if err != nil {
		logrus.Errorf("failed to process %s event to signal: %v", eventType, err)
		return fmt.Errorf("signal processing failed: %w", err)
	}

	if sig == nil {
		logrus.Debugf("%s event did not generate a signal, skipping pipeline", eventType)
		return nil
	}

	return m.evaluateAndExecute(ctx, sig)
}

func (m *Manager) evaluateAndExecute(ctx context.Context, sig signal.Signal) error {
	triggers, err := m.engine.Evaluate(ctx, sig)
	if err != nil {
		logrus.Errorf("rule evaluation failed for %s signal of user %s: %v", sig.Type(), sig.UserID(), err)
		return fmt.Errorf("rule evaluation failed: %w", err)
	}

	if len(triggers) == 0 {
		logrus.Debugf("no rules triggered for %s signal of user %s", sig.Type(), sig.UserID())
		return nil
	}

	logrus.Infof("%d rules triggered for %s signal of user %s", len(triggers), sig.Type(), sig.UserID())

	for _, trigger := range triggers {
		actionIDs := m.ruleActions[trigger.RuleID]
		if len(actionIDs) == 0 {
			logrus.Infof("rule %s has no actions configured", trigger.RuleID)
			continue
		}

		results, err := m.executor.ExecuteMultiple(ctx, actionIDs, trigger, sig.Context(), true)
		if err != nil {
			logrus.Errorf("actions for rule %s failed: %v", trigger.RuleID, err)
		}

		succeeded, failed := 0, 0
		for _, result := range results {
			if result.Success {
				succeeded++
			} else {
				failed++
			}
		}

		logrus.WithFields(logrus.Fields{
			"rule_id": trigger.RuleID,
			"user_id": trigger.UserID,
			"success": succeeded,
			"failed":  failed,
		}).Info("action execution completed")
	}

	return nil
}

// RuleActions returns the action ids mapped to a rule
func (m *Manager) RuleActions(ruleID string) []string {
	return m.ruleActions[ruleID]
}
