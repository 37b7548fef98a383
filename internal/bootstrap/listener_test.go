// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
)

type recordingRunner struct {
	eventTypes []string
	ctxErrs    []error
	err        error
}

func (r *recordingRunner) Process(ctx context.Context, eventType string, event interface{}) error {
	r.eventTypes = append(r.eventTypes, eventType)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

type recordingLedger struct {
	checkIns    []string
	redemptions []string
	err         error
}

func (l *recordingLedger) RecordCheckIn(ctx context.Context, event *service.CheckInEvent) error {
	l.checkIns = append(l.checkIns, event.ID)
	return l.err
}

func (l *recordingLedger) RecordRedemption(ctx context.Context, r *service.Reward) error {
	l.redemptions = append(l.redemptions, r.ID)
	return l.err
}

func TestEngagementListener(t *testing.T) {
	var _ checkin.Listener = (*EngagementListener)(nil)
	var _ reward.RedemptionListener = (*EngagementListener)(nil)

	runner := &recordingRunner{}
	ledger := &recordingLedger{}
	listener := NewEngagementListener(runner, ledger)

	// a cancelled request context must not cancel the reactions
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listener.CheckInCompleted(ctx, &checkin.Outcome{Event: &service.CheckInEvent{ID: "checkin-1", UserID: "user-1"}})
	listener.RewardRedeemed(ctx, &reward.RedemptionEvent{Reward: &service.Reward{ID: "voucher-1"}, UserID: "user-1"})

	if len(ledger.checkIns) != 1 || len(ledger.redemptions) != 1 {
		t.Errorf("ledger = %+v, expected one check-in and one redemption", ledger)
	}

	expected := []string{signalBuiltin.EventCheckInCompleted, signalBuiltin.EventRewardRedeemed}
	if len(runner.eventTypes) != len(expected) {
		t.Fatalf("eventTypes = %v, expected %v", runner.eventTypes, expected)
	}
	for i, eventType := range expected {
		if runner.eventTypes[i] != eventType {
			t.Errorf("eventTypes[%d] = %s, expected %s", i, runner.eventTypes[i], eventType)
		}
		if runner.ctxErrs[i] != nil {
			t.Errorf("pipeline context was cancelled: %v", runner.ctxErrs[i])
		}
	}
}

func TestEngagementListener_FailuresAreContained(t *testing.T) {
	runner := &recordingRunner{err: errors.New("rule engine down")}
	ledger := &recordingLedger{err: errors.New("db down")}
	listener := NewEngagementListener(runner, ledger)

	listener.CheckInCompleted(context.Background(), &checkin.Outcome{Event: &service.CheckInEvent{ID: "checkin-1"}})

	// the pipeline still runs when the ledger fails
	if len(runner.eventTypes) != 1 {
		t.Errorf("pipeline ran %d times, expected 1", len(runner.eventTypes))
	}

	withoutLedger := NewEngagementListener(&recordingRunner{}, nil)
	withoutLedger.RewardRedeemed(context.Background(), &reward.RedemptionEvent{Reward: &service.Reward{ID: "voucher-1"}})
}
