package rule

import (
	"context"
	"sort"

	"github.com/nightchill/checkin-service/pkg/metrics"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Engine evaluates signals against the registered rules.
type Engine struct {
	registry *Registry
}

// NewEngine creates a rule engine over registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{
		registry: registry,
	}
}

// Evaluate runs every rule interested in the signal's type and returns the
// triggers, highest priority first. A failing rule is logged and skipped.
func (e *Engine) Evaluate(ctx context.Context, sig signal.Signal) ([]*Trigger, error) {
	if sig == nil {
		return nil, nil
	}

	rules := e.registry.GetBySignalType(sig.Type())
	if len(rules) == 0 {
		logrus.Debugf("no rules found for signal type '%s'", sig.Type())
		return nil, nil
	}

	var triggers []*Trigger
	for _, r := range rules {
		matched, trigger, err := r.Evaluate(ctx, sig)
		if err != nil {
			logrus.Errorf("rule %s evaluation failed: %v", r.ID(), err)
			continue
		}

		if matched && trigger != nil {
			metrics.RuleTriggersTotal.WithLabelValues(r.ID()).Inc()
			logrus.Infof("rule %s triggered for user %s: %s", r.ID(), sig.UserID(), trigger.Reason)
			triggers = append(triggers, trigger)
		}
	}

	// ties are broken by rule id so the order is stable across map iteration
	sort.Slice(triggers, func(i, j int) bool {
		if triggers[i].Priority != triggers[j].Priority {
			return triggers[i].Priority > triggers[j].Priority
		}
		return triggers[i].RuleID < triggers[j].RuleID
	})

	return triggers, nil
}

// GetRegistry returns the rule registry used by this engine.
func (e *Engine) GetRegistry() *Registry {
	return e.registry
}
