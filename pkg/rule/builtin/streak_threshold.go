package builtin

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

const (
	// StreakThresholdRuleID is the type of the streak threshold rule
	StreakThresholdRuleID = "streak_threshold"
)

// StreakThresholdRule fires on the check-in that brings the current streak to
// exactly the threshold, so a long streak triggers it once per run.
type StreakThresholdRule struct {
	config    rule.RuleConfig
	threshold int
}

// NewStreakThresholdRule creates a streak rule. threshold is required and must be positive.
func NewStreakThresholdRule(config rule.RuleConfig) (*StreakThresholdRule, error) {
	threshold := config.GetInt("threshold", 0)
	if threshold <= 0 {
		return nil, fmt.Errorf("streak_threshold rule %s needs a positive threshold", config.ID)
	}

	logrus.Infof("creating streak threshold rule %s with threshold=%d", config.ID, threshold)

	return &StreakThresholdRule{
		config:    config,
		threshold: threshold,
	}, nil
}

func (r *StreakThresholdRule) ID() string {
	return r.config.ID
}

func (r *StreakThresholdRule) Name() string {
	return "Streak Threshold"
}

func (r *StreakThresholdRule) SignalTypes() []string {
	return []string{signalBuiltin.TypeCheckIn}
}

func (r *StreakThresholdRule) Config() rule.RuleConfig {
	return r.config
}

func (r *StreakThresholdRule) Evaluate(ctx context.Context, sig signal.Signal) (bool, *rule.Trigger, error) {
	checkInSig, ok := sig.(*signalBuiltin.CheckInSignal)
	if !ok {
		return false, nil, fmt.Errorf("expected CheckInSignal, got %T", sig)
	}

	if checkInSig.CurrentStreak != r.threshold {
		return false, nil, nil
	}

	trigger := rule.NewTrigger(r.ID(), sig.UserID(), fmt.Sprintf("%d day streak", r.threshold), r.config.Priority).
		WithMetadata("streak", checkInSig.CurrentStreak).
		WithMetadata("threshold", r.threshold)
	return true, trigger, nil
}
