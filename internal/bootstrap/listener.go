// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"

	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

// EventRunner runs a domain event through the engagement pipeline
type EventRunner interface {
	Process(ctx context.Context, eventType string, event interface{}) error
}

// EngagementListener reacts to committed check-ins and redemptions: it appends
// them to the audit ledger and runs the engagement pipeline. Failures are
// logged; the user-facing operation has already succeeded.
type EngagementListener struct {
	runner EventRunner
	ledger service.Ledger
}

// NewEngagementListener creates the listener. A nil ledger skips auditing.
func NewEngagementListener(runner EventRunner, ledger service.Ledger) *EngagementListener {
	return &EngagementListener{runner: runner, ledger: ledger}
}

// CheckInCompleted implements checkin.Listener
func (l *EngagementListener) CheckInCompleted(ctx context.Context, outcome *checkin.Outcome) {
	// the request may finish before the reactions do
	ctx = context.WithoutCancel(ctx)

	if l.ledger != nil && outcome.Event != nil {
		if err := l.ledger.RecordCheckIn(ctx, outcome.Event); err != nil {
			logrus.Errorf("failed to record check-in %s in ledger: %v", outcome.Event.ID, err)
		}
	}

	if err := l.runner.Process(ctx, signalBuiltin.EventCheckInCompleted, outcome); err != nil {
		logrus.Errorf("engagement pipeline failed for check-in: %v", err)
	}
}

// RewardRedeemed implements reward.RedemptionListener
func (l *EngagementListener) RewardRedeemed(ctx context.Context, event *reward.RedemptionEvent) {
	ctx = context.WithoutCancel(ctx)

	if l.ledger != nil && event.Reward != nil {
		if err := l.ledger.RecordRedemption(ctx, event.Reward); err != nil {
			logrus.Errorf("failed to record redemption of %s in ledger: %v", event.Reward.ID, err)
		}
	}

	if err := l.runner.Process(ctx, signalBuiltin.EventRewardRedeemed, event); err != nil {
		logrus.Errorf("engagement pipeline failed for redemption: %v", err)
	}
}
