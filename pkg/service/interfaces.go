package service

import (
	"context"
	"errors"
	"time"

	"github.com/nightchill/checkin-service/pkg/state"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// Storage ports. Engines depend on these so tests and alternate backends can
// be swapped in without touching domain code.

// UserStore persists user journey counters
type UserStore interface {
	// GetUserState returns the user's state, or a fresh state when none exists
	GetUserState(ctx context.Context, userID string) (*state.UserState, error)
	// ApplyCheckIn writes the check-in counters atomically and returns the stored state
	ApplyCheckIn(ctx context.Context, update CheckInUpdate) (*state.UserState, error)
	// IncrementCounters applies point and coffee increments
	IncrementCounters(ctx context.Context, userID string, delta CounterDelta) error
}

// Locker provides per-key mutual exclusion
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// RewardStore persists badges and vouchers
type RewardStore interface {
	CreateReward(ctx context.Context, reward *Reward) error
	GetReward(ctx context.Context, rewardID string) (*Reward, error)
	// UpdateReward applies fn to the stored reward and writes it back only if
	// nothing changed it in between. fn errors abort the write.
	UpdateReward(ctx context.Context, rewardID string, fn func(*Reward) error) (*Reward, error)
	// ListRewardsByUser returns the user's rewards, newest first
	ListRewardsByUser(ctx context.Context, userID string) ([]*Reward, error)
	// ListExpiringVouchers returns ids of active vouchers whose deadline is before t
	ListExpiringVouchers(ctx context.Context, before time.Time, limit int) ([]string, error)
	// DropExpiringVoucher removes an id from the expiry index
	DropExpiringVoucher(ctx context.Context, rewardID string) error
	// AwardMilestone stores badge unless the user already has milestoneID.
	// It reports whether the badge was stored.
	AwardMilestone(ctx context.Context, userID, milestoneID string, badge *Reward) (bool, error)
	ListMilestones(ctx context.Context, userID string) ([]string, error)
}

// CheckInStore persists check-in events
type CheckInStore interface {
	CreateCheckIn(ctx context.Context, event *CheckInEvent) error
	// ListCheckInsByUser returns events newest first; limit <= 0 means all
	ListCheckInsByUser(ctx context.Context, userID string, limit int) ([]*CheckInEvent, error)
}

// LocationStore persists locations and their reviews
type LocationStore interface {
	SaveLocation(ctx context.Context, location *Location) error
	GetLocation(ctx context.Context, locationID string) (*Location, error)
	ListLocations(ctx context.Context) ([]*Location, error)
	IncrementCheckInCount(ctx context.Context, locationID string) error
	// AddReview stores the review and updates the location's rating counters
	AddReview(ctx context.Context, review *Review) (*Location, error)
	// ListReviews returns a page of reviews, newest first, and the total count
	ListReviews(ctx context.Context, locationID string, offset, limit int) ([]*Review, int, error)
}

// EventPublisher emits domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, payload interface{}) error
	Close() error
}

// Ledger is an append-only audit record of check-ins and redemptions
type Ledger interface {
	RecordCheckIn(ctx context.Context, event *CheckInEvent) error
	RecordRedemption(ctx context.Context, reward *Reward) error
}
