package builtin

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
)

const (
	// VoucherRedeemedRuleID is the type of the redemption rule
	VoucherRedeemedRuleID = "voucher_redeemed"
)

// VoucherRedeemedRule fires on redemptions, optionally limited to one reward type.
type VoucherRedeemedRule struct {
	config     rule.RuleConfig
	rewardType string
}

// NewVoucherRedeemedRule creates a redemption rule.
func NewVoucherRedeemedRule(config rule.RuleConfig) *VoucherRedeemedRule {
	return &VoucherRedeemedRule{
		config:     config,
		rewardType: config.GetString("reward_type", ""),
	}
}

func (r *VoucherRedeemedRule) ID() string {
	return r.config.ID
}

func (r *VoucherRedeemedRule) Name() string {
	return "Voucher Redeemed"
}

func (r *VoucherRedeemedRule) SignalTypes() []string {
	return []string{signalBuiltin.TypeVoucherRedeemed}
}

func (r *VoucherRedeemedRule) Config() rule.RuleConfig {
	return r.config
}

func (r *VoucherRedeemedRule) Evaluate(ctx context.Context, sig signal.Signal) (bool, *rule.Trigger, error) {
	redeemed, ok := sig.(*signalBuiltin.VoucherRedeemedSignal)
	if !ok {
		return false, nil, fmt.Errorf("expected VoucherRedeemedSignal, got %T", sig)
	}

	if r.rewardType != "" && redeemed.RewardType != r.rewardType {
		return false, nil, nil
	}

	trigger := rule.NewTrigger(r.ID(), sig.UserID(), "Voucher "+redeemed.RewardID+" redeemed", r.config.Priority).
		WithMetadata("reward_id", redeemed.RewardID).
		WithMetadata("reward_type", redeemed.RewardType).
		WithMetadata("value", redeemed.Value).
		WithMetadata("sponsor_id", redeemed.SponsorID).
		WithMetadata("location_id", redeemed.LocationID).
		WithMetadata("channel", redeemed.Channel)
	return true, trigger, nil
}
