// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// PolicyHoursSinceLast continues a streak after more than 20 hours and
	// resets it after more than 48 hours.
	PolicyHoursSinceLast = "hours_since_last"

	// PolicyDailyBand continues a streak inside the [24h, 48h) band and
	// resets it at 48 hours or more.
	PolicyDailyBand = "daily_band"
)

// StreakResult holds the counters produced by a streak policy
type StreakResult struct {
	CurrentStreak int
	LongestStreak int
	TotalCheckIns int
}

// StreakPolicy computes the next streak counters for a check-in at now.
type StreakPolicy interface {
	Name() string
	Next(state *UserState, now time.Time) StreakResult
}

// NewStreakPolicy returns the policy registered under name.
func NewStreakPolicy(name string) (StreakPolicy, error) {
	switch name {
	case PolicyHoursSinceLast, "":
		return HoursSinceLastPolicy{}, nil
	case PolicyDailyBand:
		return DailyBandPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown streak policy: %s", name)
	}
}

// HoursSinceLastPolicy uses the 20/48 hour thresholds
type HoursSinceLastPolicy struct{}

func (HoursSinceLastPolicy) Name() string { return PolicyHoursSinceLast }

func (HoursSinceLastPolicy) Next(state *UserState, now time.Time) StreakResult {
	streak := state.CurrentStreak

	if state.LastCheckInAt == nil {
		streak = 1
	} else {
		hours := now.Sub(*state.LastCheckInAt).Hours()
		switch {
		case hours > 48:
			logrus.Debugf("streak reset for user %s: %.1fh since last check-in", state.ID, hours)
			streak = 1
		case hours > 20:
			streak++
		}
	}

	return finishStreak(state, streak)
}

// DailyBandPolicy uses the 24/48 hour band
type DailyBandPolicy struct{}

func (DailyBandPolicy) Name() string { return PolicyDailyBand }

func (DailyBandPolicy) Next(state *UserState, now time.Time) StreakResult {
	streak := state.CurrentStreak

	if state.LastCheckInAt == nil {
		streak = 1
	} else {
		hours := now.Sub(*state.LastCheckInAt).Hours()
		switch {
		case hours >= 48:
			logrus.Debugf("streak reset for user %s: %.1fh since last check-in", state.ID, hours)
			streak = 1
		case hours >= 24:
			streak++
		}
	}

	return finishStreak(state, streak)
}

// finishStreak applies the rules shared by every policy
func finishStreak(state *UserState, streak int) StreakResult {
	// a zero streak with a recorded check-in only happens on legacy records
	if streak < 1 {
		streak = 1
	}

	longest := state.LongestStreak
	if streak > longest {
		longest = streak
	}

	return StreakResult{
		CurrentStreak: streak,
		LongestStreak: longest,
		TotalCheckIns: state.TotalCheckIns + 1,
	}
}

// ValidateCheckInTime rejects check-ins older than the last recorded one
func ValidateCheckInTime(state *UserState, now time.Time) error {
	if state.LastCheckInAt != nil && now.Before(*state.LastCheckInAt) {
		return fmt.Errorf("check-in at %s is before last check-in at %s",
			now.Format(time.RFC3339), state.LastCheckInAt.Format(time.RFC3339))
	}
	return nil
}
