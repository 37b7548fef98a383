package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

const (
	// MilestoneReachedRuleID is the type of the milestone rule
	MilestoneReachedRuleID = "milestone_reached"
)

// MilestoneReachedRule fires when a check-in awards one of the configured
// milestones. With no milestones configured it fires for any award.
type MilestoneReachedRule struct {
	config     rule.RuleConfig
	milestones map[string]bool
}

// NewMilestoneReachedRule creates a milestone rule.
func NewMilestoneReachedRule(config rule.RuleConfig) *MilestoneReachedRule {
	ids := config.GetStringSlice("milestones")
	milestones := make(map[string]bool, len(ids))
	for _, id := range ids {
		milestones[id] = true
	}

	logrus.Infof("creating milestone rule %s for milestones=[%s]", config.ID, strings.Join(ids, ","))

	return &MilestoneReachedRule{
		config:     config,
		milestones: milestones,
	}
}

func (r *MilestoneReachedRule) ID() string {
	return r.config.ID
}

func (r *MilestoneReachedRule) Name() string {
	return "Milestone Reached"
}

func (r *MilestoneReachedRule) SignalTypes() []string {
	return []string{signalBuiltin.TypeCheckIn}
}

func (r *MilestoneReachedRule) Config() rule.RuleConfig {
	return r.config
}

// Evaluate matches the first configured milestone awarded by the check-in.
func (r *MilestoneReachedRule) Evaluate(ctx context.Context, sig signal.Signal) (bool, *rule.Trigger, error) {
	checkInSig, ok := sig.(*signalBuiltin.CheckInSignal)
	if !ok {
		return false, nil, fmt.Errorf("expected CheckInSignal, got %T", sig)
	}

	for _, milestoneID := range checkInSig.MilestonesAwarded {
		if len(r.milestones) > 0 && !r.milestones[milestoneID] {
			continue
		}

		trigger := rule.NewTrigger(r.ID(), sig.UserID(), "Milestone "+milestoneID+" reached", r.config.Priority).
			WithMetadata("milestone_id", milestoneID).
			WithMetadata("check_in_id", checkInSig.CheckInID)
		return true, trigger, nil
	}

	return false, nil, nil
}
