// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"time"
)

// Reward types
const (
	RewardTypeBadge    = "badge"
	RewardTypeCoffee   = "coffee"
	RewardTypeGymPass  = "gym_pass"
	RewardTypeDiscount = "discount"
)

// Reward statuses. A redeemed reward is terminal.
const (
	RewardStatusActive   = "active"
	RewardStatusRedeemed = "redeemed"
	RewardStatusExpired  = "expired"
)

// IsVoucherType reports whether rewards of this type carry a signed QR token
func IsVoucherType(rewardType string) bool {
	switch rewardType {
	case RewardTypeCoffee, RewardTypeGymPass, RewardTypeDiscount:
		return true
	}
	return false
}

// Reward is a badge or voucher owned by a user.
// An empty UserID marks a bearer voucher that is claimed on redemption.
type Reward struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	Type               string     `json:"type"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Icon               string     `json:"icon,omitempty"`
	MilestoneID        string     `json:"milestoneId,omitempty"`
	Value              float64    `json:"value,omitempty"`
	SponsorID          string     `json:"sponsorId,omitempty"`
	Anonymous          bool       `json:"anonymous,omitempty"`
	Message            string     `json:"message,omitempty"`
	LocationID         string     `json:"locationId,omitempty"`
	Status             string     `json:"status"`
	Redeemed           bool       `json:"redeemed"`
	EarnedAt           time.Time  `json:"earnedAt"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	QRCode             string     `json:"qrCode,omitempty"`
	RedeemedAt         *time.Time `json:"redeemedAt,omitempty"`
	RedeemedLocationID string     `json:"redeemedLocationId,omitempty"`
	RedeemedBy         string     `json:"redeemedBy,omitempty"`
}

// ExpiredAt reports whether the reward's deadline has passed at now
func (r *Reward) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// Moods accepted on a check-in
var Moods = []string{"calm", "anxious", "neutral", "motivated"}

// ValidMood reports whether mood is empty or one of Moods
func ValidMood(mood string) bool {
	if mood == "" {
		return true
	}
	for _, m := range Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// CheckInEvent is an immutable record of a single check-in.
type CheckInEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	LocationID   string    `json:"locationId,omitempty"`
	LocationType string    `json:"locationType"`
	LocationName string    `json:"locationName"`
	Timestamp    time.Time `json:"timestamp"`
	Mood         string    `json:"mood,omitempty"`
	Note         string    `json:"note,omitempty"`
	PointsEarned int       `json:"pointsEarned"`
	StreakDay    int       `json:"streakDay"`
	Verified     bool      `json:"verified"`
}

// Location is a venue users can check in at.
// CheckInCount and ReviewCount are maintained by the store.
type Location struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Type               string   `json:"type" yaml:"type"`
	Latitude           float64  `json:"latitude" yaml:"latitude"`
	Longitude          float64  `json:"longitude" yaml:"longitude"`
	Address            string   `json:"address,omitempty" yaml:"address"`
	City               string   `json:"city,omitempty" yaml:"city"`
	Country            string   `json:"country,omitempty" yaml:"country"`
	Description        string   `json:"description,omitempty" yaml:"description"`
	Amenities          []string `json:"amenities,omitempty" yaml:"amenities"`
	AnxietyLevel       string   `json:"anxietyLevel,omitempty" yaml:"anxietyLevel"`
	HasQRReward        bool     `json:"hasQRReward" yaml:"hasQRReward"`
	IsVerified         bool     `json:"isVerified" yaml:"isVerified"`
	IsBeginnerFriendly bool     `json:"isBeginnerFriendly" yaml:"isBeginnerFriendly"`
	Rating             float64  `json:"rating" yaml:"rating"`
	ReviewCount        int      `json:"reviewCount" yaml:"reviewCount"`
	CheckInCount       int      `json:"checkInCount" yaml:"checkInCount"`
}

// Review is a user's rating of a location
type Review struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	LocationID string    `json:"locationId"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CheckInUpdate carries the counters written by a check-in. Points and gym
// visits are increments so they compose with concurrent voucher credits.
type CheckInUpdate struct {
	UserID        string
	CurrentStreak int
	LongestStreak int
	TotalCheckIns int
	JourneyLevel  int
	LastCheckInAt time.Time
	PointsDelta   int
	GymVisitDelta int
}

// CounterDelta increments secondary user counters
type CounterDelta struct {
	TotalPoints     int
	CoffeesGiven    int
	CoffeesReceived int
}
