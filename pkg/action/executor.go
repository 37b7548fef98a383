package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nightchill/checkin-service/pkg/metrics"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Executor runs actions for rule triggers.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
	}
}

// ExecuteMultiple runs the actions in order. The first failure stops the
// sequence; with rollbackOnError the already executed actions are rolled back
// in reverse order.
func (e *Executor) ExecuteMultiple(ctx context.Context, actionIDs []string, trigger *rule.Trigger, userCtx *signal.UserContext, rollbackOnError bool) ([]*ActionResult, error) {
	var results []*ActionResult
	var executed []Action

	for _, actionID := range actionIDs {
		a := e.registry.Get(actionID)
		if a == nil {
			err := fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
			logrus.Errorf("%v", err)
			if rollbackOnError {
				e.rollbackActions(ctx, executed, trigger, userCtx)
			}
			return results, err
		}

		logrus.Infof("executing action %s for trigger %s (user: %s)", actionID, trigger.RuleID, trigger.UserID)

		attempts, err := e.execute(ctx, a, trigger, userCtx)
		if err != nil {
			metrics.ActionExecutionsTotal.WithLabelValues(actionID, "failure").Inc()
			logrus.Errorf("action %s failed after %d attempt(s): %v", actionID, attempts, err)
			results = append(results, NewActionError(actionID, attempts, err))
			if rollbackOnError {
				e.rollbackActions(ctx, executed, trigger, userCtx)
			}
			return results, err
		}

		metrics.ActionExecutionsTotal.WithLabelValues(actionID, "success").Inc()
		executed = append(executed, a)
		results = append(results, NewActionResult(actionID, attempts))
		logrus.Infof("action %s completed successfully", actionID)
	}

	return results, nil
}

// execute runs one action, retrying per its RetryConfig. Returns the number of attempts made.
func (e *Executor) execute(ctx context.Context, a Action, trigger *rule.Trigger, userCtx *signal.UserContext) (int, error) {
	retry := a.Config().Retry
	if retry == nil || retry.MaxAttempts <= 1 {
		return 1, a.Execute(ctx, trigger, userCtx)
	}

	attempts := 0
	operation := func() error {
		attempts++
		err := a.Execute(ctx, trigger, userCtx)
		if errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrDependencyMissing) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(retryPolicy(retry), ctx))
	return attempts, err
}

func retryPolicy(retry *RetryConfig) backoff.BackOff {
	delay := retry.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	var policy backoff.BackOff = backoff.NewConstantBackOff(delay)
	if retry.Backoff == "exponential" {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = delay
		exp.MaxElapsedTime = 0
		policy = exp
	}
	return backoff.WithMaxRetries(policy, uint64(retry.MaxAttempts-1))
}

// rollbackActions rolls back actions in reverse order.
func (e *Executor) rollbackActions(ctx context.Context, actions []Action, trigger *rule.Trigger, userCtx *signal.UserContext) {
	if len(actions) == 0 {
		return
	}
	logrus.Warnf("rolling back %d actions", len(actions))

	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]

		err := a.Rollback(ctx, trigger, userCtx)
		switch {
		case err == nil:
			logrus.Infof("action %s rolled back", a.ID())
		case errors.Is(err, ErrRollbackNotSupported):
			logrus.Warnf("action %s does not support rollback", a.ID())
		default:
			logrus.Errorf("failed to rollback action %s: %v", a.ID(), err)
		}
	}
}

// GetRegistry returns the action registry used by this executor.
func (e *Executor) GetRegistry() *Registry {
	return e.registry
}
