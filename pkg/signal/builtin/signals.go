package builtin

import (
	"time"

	"github.com/nightchill/checkin-service/pkg/signal"
)

// Signal type constants for built-in signals
const (
	TypeCheckIn         = "check_in"
	TypeVoucherRedeemed = "voucher_redeemed"
)

// CheckInSignal is emitted after a check-in has been committed.
type CheckInSignal struct {
	signal.BaseSignal
	CheckInID         string
	LocationID        string
	LocationType      string
	CurrentStreak     int
	TotalCheckIns     int
	LevelUp           bool
	NewLevel          int
	PointsEarned      int
	MilestonesAwarded []string
}

// NewCheckInSignal creates a new check-in signal.
func NewCheckInSignal(userID string, timestamp time.Time, c CheckInSignal, context *signal.UserContext) *CheckInSignal {
	metadata := map[string]interface{}{
		"check_in_id":        c.CheckInID,
		"location_id":        c.LocationID,
		"location_type":      c.LocationType,
		"current_streak":     c.CurrentStreak,
		"total_check_ins":    c.TotalCheckIns,
		"level_up":           c.LevelUp,
		"new_level":          c.NewLevel,
		"points_earned":      c.PointsEarned,
		"milestones_awarded": c.MilestonesAwarded,
	}
	c.BaseSignal = signal.NewBaseSignal(TypeCheckIn, userID, timestamp, metadata, context)
	return &c
}

// VoucherRedeemedSignal is emitted after a voucher has been redeemed.
type VoucherRedeemedSignal struct {
	signal.BaseSignal
	RewardID   string
	RewardType string
	Value      float64
	SponsorID  string
	LocationID string
	Channel    string
}

// NewVoucherRedeemedSignal creates a new voucher redeemed signal.
func NewVoucherRedeemedSignal(userID string, timestamp time.Time, v VoucherRedeemedSignal, context *signal.UserContext) *VoucherRedeemedSignal {
	metadata := map[string]interface{}{
		"reward_id":   v.RewardID,
		"reward_type": v.RewardType,
		"value":       v.Value,
		"sponsor_id":  v.SponsorID,
		"location_id": v.LocationID,
		"channel":     v.Channel,
	}
	v.BaseSignal = signal.NewBaseSignal(TypeVoucherRedeemed, userID, timestamp, metadata, context)
	return &v
}
