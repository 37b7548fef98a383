package builtin

import (
	"github.com/nightchill/checkin-service/pkg/rule"
)

// RegisterRules registers the built-in rule types with the rule factory.
func RegisterRules() {
	rule.RegisterRuleType(MilestoneReachedRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewMilestoneReachedRule(config), nil
	})

	rule.RegisterRuleType(LevelUpRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewLevelUpRule(config), nil
	})

	rule.RegisterRuleType(StreakThresholdRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		r, err := NewStreakThresholdRule(config)
		if err != nil {
			return nil, err
		}
		return r, nil
	})

	rule.RegisterRuleType(VoucherRedeemedRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewVoucherRedeemedRule(config), nil
	})
}
