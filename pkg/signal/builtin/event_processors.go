package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Event types accepted by the built-in processors
const (
	EventCheckInCompleted = "checkin_completed"
	EventRewardRedeemed   = "reward_redeemed"
)

// RegisterEventProcessors registers all built-in event processors.
func RegisterEventProcessors(registry *signal.EventProcessorRegistry) {
	registry.Register(&CheckInEventProcessor{})
	registry.Register(&RedemptionEventProcessor{Now: time.Now})
}

// CheckInEventProcessor turns a committed check-in outcome into a CheckInSignal.
// The outcome already carries the post-update state so no store read is needed.
type CheckInEventProcessor struct{}

func (p *CheckInEventProcessor) EventType() string {
	return EventCheckInCompleted
}

func (p *CheckInEventProcessor) Process(ctx context.Context, event interface{}, loader signal.UserContextLoader) (signal.Signal, error) {
	outcome, ok := event.(*checkin.Outcome)
	if !ok || outcome == nil || outcome.Event == nil || outcome.Result == nil {
		return nil, fmt.Errorf("expected *checkin.Outcome, got %T", event)
	}

	userID := outcome.Event.UserID
	if userID == "" {
		return nil, fmt.Errorf("user ID is empty in check-in outcome")
	}

	var userCtx *signal.UserContext
	if outcome.State != nil {
		userCtx = signal.BuildUserContext(userID, outcome.State)
	} else {
		loaded, err := loader.Load(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user context for user %s: %w", userID, err)
		}
		userCtx = loaded
	}

	milestones := make([]string, 0, len(outcome.Result.MilestonesAwarded))
	for _, badge := range outcome.Result.MilestonesAwarded {
		milestones = append(milestones, badge.MilestoneID)
	}

	sig := NewCheckInSignal(userID, outcome.Event.Timestamp, CheckInSignal{
		CheckInID:         outcome.Event.ID,
		LocationID:        outcome.Event.LocationID,
		LocationType:      outcome.Event.LocationType,
		CurrentStreak:     outcome.Result.CurrentStreak,
		TotalCheckIns:     outcome.Result.TotalCheckIns,
		LevelUp:           outcome.Result.LevelUp,
		NewLevel:          outcome.Result.NewLevel,
		PointsEarned:      outcome.Result.PointsEarned,
		MilestonesAwarded: milestones,
	}, userCtx)

	logrus.Debugf("processed check-in %s for user %s into CheckInSignal", outcome.Event.ID, userID)
	return sig, nil
}

// RedemptionEventProcessor turns a redemption into a VoucherRedeemedSignal.
type RedemptionEventProcessor struct {
	Now func() time.Time
}

func (p *RedemptionEventProcessor) EventType() string {
	return EventRewardRedeemed
}

func (p *RedemptionEventProcessor) Process(ctx context.Context, event interface{}, loader signal.UserContextLoader) (signal.Signal, error) {
	redemption, ok := event.(*reward.RedemptionEvent)
	if !ok || redemption == nil || redemption.Reward == nil {
		return nil, fmt.Errorf("expected *reward.RedemptionEvent, got %T", event)
	}

	userID := redemption.UserID
	if userID == "" {
		return nil, fmt.Errorf("user ID is empty in redemption event")
	}

	userCtx, err := loader.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user context for user %s: %w", userID, err)
	}

	timestamp := p.now()
	if r := redemption.Reward; r.RedeemedAt != nil {
		timestamp = *r.RedeemedAt
	}

	sig := NewVoucherRedeemedSignal(userID, timestamp, VoucherRedeemedSignal{
		RewardID:   redemption.Reward.ID,
		RewardType: redemption.Reward.Type,
		Value:      redemption.Reward.Value,
		SponsorID:  redemption.Reward.SponsorID,
		LocationID: redemption.LocationID,
		Channel:    redemption.Channel,
	}, userCtx)

	logrus.Debugf("processed redemption of %s for user %s into VoucherRedeemedSignal", redemption.Reward.ID, userID)
	return sig, nil
}

func (p *RedemptionEventProcessor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
