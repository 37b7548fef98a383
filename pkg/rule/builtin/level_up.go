package builtin

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
)

const (
	// LevelUpRuleID is the type of the level up rule
	LevelUpRuleID = "level_up"
)

// LevelUpRule fires when a check-in raises the user's journey level to at
// least min_level.
type LevelUpRule struct {
	config   rule.RuleConfig
	minLevel int
}

// NewLevelUpRule creates a level up rule. min_level defaults to 2.
func NewLevelUpRule(config rule.RuleConfig) *LevelUpRule {
	return &LevelUpRule{
		config:   config,
		minLevel: config.GetInt("min_level", 2),
	}
}

func (r *LevelUpRule) ID() string {
	return r.config.ID
}

func (r *LevelUpRule) Name() string {
	return "Level Up"
}

func (r *LevelUpRule) SignalTypes() []string {
	return []string{signalBuiltin.TypeCheckIn}
}

func (r *LevelUpRule) Config() rule.RuleConfig {
	return r.config
}

func (r *LevelUpRule) Evaluate(ctx context.Context, sig signal.Signal) (bool, *rule.Trigger, error) {
	checkInSig, ok := sig.(*signalBuiltin.CheckInSignal)
	if !ok {
		return false, nil, fmt.Errorf("expected CheckInSignal, got %T", sig)
	}

	if !checkInSig.LevelUp || checkInSig.NewLevel < r.minLevel {
		return false, nil, nil
	}

	trigger := rule.NewTrigger(r.ID(), sig.UserID(), fmt.Sprintf("Reached level %d", checkInSig.NewLevel), r.config.Priority).
		WithMetadata("new_level", checkInSig.NewLevel)
	return true, trigger, nil
}
