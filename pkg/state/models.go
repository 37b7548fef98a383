// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"time"
)

// UserState represents the journey counters for a user
type UserState struct {
	ID                 string     `json:"id"`
	CurrentStreak      int        `json:"currentStreak"`
	LongestStreak      int        `json:"longestStreak"`
	TotalCheckIns      int        `json:"totalCheckIns"`
	LastCheckInAt      *time.Time `json:"lastCheckInAt,omitempty"`
	JourneyLevel       int        `json:"journeyLevel"`
	TotalPoints        int        `json:"totalPoints"`
	Stats              UserStats  `json:"stats"`
	MilestonesAchieved []string   `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// UserStats tracks secondary activity counters
type UserStats struct {
	GymVisits       int `json:"gymVisits"`
	CoffeesGiven    int `json:"coffeesGiven"`
	CoffeesReceived int `json:"coffeesReceived"`
}

// NewUserState returns the state of a freshly registered user
func NewUserState(userID string, now time.Time) *UserState {
	return &UserState{
		ID:                 userID,
		JourneyLevel:       MinLevel,
		MilestonesAchieved: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// HasMilestone reports whether the milestone has already been awarded
func (s *UserState) HasMilestone(milestoneID string) bool {
	for _, id := range s.MilestonesAchieved {
		if id == milestoneID {
			return true
		}
	}
	return false
}
