package builtin

import (
	"context"
	"fmt"

	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

const (
	// IssueVoucherActionID is the type of the voucher issuing action
	IssueVoucherActionID = "issue_voucher"

	defaultVoucherSponsor = "nightchill"
)

// IssueVoucherAction issues a sponsored voucher to the triggering user. The
// voucher id is recorded on the trigger so Rollback can revoke it.
type IssueVoucherAction struct {
	config      action.ActionConfig
	issuer      service.VoucherIssuer
	rewardType  string
	title       string
	description string
	value       float64
	sponsorID   string
}

// NewIssueVoucherAction creates the action. type must be a voucher type and title is required.
func NewIssueVoucherAction(config action.ActionConfig, issuer service.VoucherIssuer) (*IssueVoucherAction, error) {
	rewardType := config.GetParameterString("type", service.RewardTypeCoffee)
	if !service.IsVoucherType(rewardType) {
		return nil, fmt.Errorf("%w: %s is not a voucher type", action.ErrInvalidConfig, rewardType)
	}

	title := config.GetParameterString("title", "")
	if title == "" {
		return nil, fmt.Errorf("%w: issue_voucher %s needs a title", action.ErrInvalidConfig, config.ID)
	}

	a := &IssueVoucherAction{
		config:      config,
		issuer:      issuer,
		rewardType:  rewardType,
		title:       title,
		description: config.GetParameterString("description", ""),
		value:       config.GetParameterFloat("value", 0),
		sponsorID:   config.GetParameterString("sponsor_id", defaultVoucherSponsor),
	}

	logrus.Infof("creating issue voucher action %s: type=%s value=%.2f", config.ID, rewardType, a.value)
	return a, nil
}

func (a *IssueVoucherAction) ID() string {
	return a.config.ID
}

func (a *IssueVoucherAction) Name() string {
	return "Issue Voucher"
}

func (a *IssueVoucherAction) Config() action.ActionConfig {
	return a.config
}

func (a *IssueVoucherAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	if a.issuer == nil {
		return fmt.Errorf("%w: voucher issuer", action.ErrDependencyMissing)
	}

	description := a.description
	if description == "" {
		description = trigger.Reason
	}

	reward, err := a.issuer.Issue(ctx, service.IssueRequest{
		UserID:      trigger.UserID,
		Type:        a.rewardType,
		Title:       a.title,
		Description: description,
		Value:       a.value,
		SponsorID:   a.sponsorID,
		Expiry:      a.config.GetParameterDuration("expiry", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to issue voucher: %w", err)
	}

	trigger.Metadata[a.issuedKey()] = reward.ID

	logrus.Infof("issued %s voucher %s to user %s for rule %s", a.rewardType, reward.ID, trigger.UserID, trigger.RuleID)
	return nil
}

func (a *IssueVoucherAction) Rollback(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) error {
	rewardID := trigger.GetString(a.issuedKey())
	if rewardID == "" {
		return nil
	}
	if a.issuer == nil {
		return fmt.Errorf("%w: voucher issuer", action.ErrDependencyMissing)
	}

	if err := a.issuer.Revoke(ctx, rewardID); err != nil {
		return fmt.Errorf("failed to revoke voucher %s: %w", rewardID, err)
	}

	logrus.Infof("revoked voucher %s issued to user %s", rewardID, trigger.UserID)
	return nil
}

// issuedKey is the trigger metadata key holding the voucher this action issued
func (a *IssueVoucherAction) issuedKey() string {
	return "issued_voucher." + a.config.ID
}
