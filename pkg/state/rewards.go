// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import "fmt"

const (
	basePoints      = 10
	streakBonusEach = 2
	streakBonusCap  = 10
	gymBonusPoints  = 15
	locationTypeGym = "gym"

	MilestoneMetricStreak = "streak"
	MilestoneMetricTotal  = "total"
)

// Milestone is a named achievement condition over streak or total check-ins
type Milestone struct {
	ID        string
	Name      string
	Icon      string
	Metric    string
	Threshold int
}

// Reached reports whether the milestone condition holds
func (m Milestone) Reached(currentStreak, totalCheckIns int) bool {
	switch m.Metric {
	case MilestoneMetricStreak:
		return currentStreak >= m.Threshold
	case MilestoneMetricTotal:
		return totalCheckIns >= m.Threshold
	}
	return false
}

// Milestones is the ordered milestone table. Order is significant.
var Milestones = []Milestone{
	{ID: "first_step", Name: "First Step", Icon: "🌟", Metric: MilestoneMetricTotal, Threshold: 1},
	{ID: "week_1", Name: "Week Warrior", Icon: "💪", Metric: MilestoneMetricStreak, Threshold: 7},
	{ID: "week_2", Name: "Fortnight Fighter", Icon: "🔥", Metric: MilestoneMetricStreak, Threshold: 14},
	{ID: "month_1", Name: "Monthly Master", Icon: "👑", Metric: MilestoneMetricStreak, Threshold: 30},
	{ID: "century", Name: "Century Club", Icon: "🏆", Metric: MilestoneMetricStreak, Threshold: 100},
	{ID: "checkin_10", Name: "Getting Started", Icon: "📍", Metric: MilestoneMetricTotal, Threshold: 10},
	{ID: "checkin_50", Name: "Committed", Icon: "🎯", Metric: MilestoneMetricTotal, Threshold: 50},
	{ID: "checkin_100", Name: "Dedicated", Icon: "⭐", Metric: MilestoneMetricTotal, Threshold: 100},
}

// MilestoneByID looks up a milestone in the table
func MilestoneByID(id string) (Milestone, bool) {
	for _, m := range Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// ReachedMilestones returns the milestones satisfied by the counters, in table order
func ReachedMilestones(currentStreak, totalCheckIns int) []Milestone {
	var reached []Milestone
	for _, m := range Milestones {
		if m.Reached(currentStreak, totalCheckIns) {
			reached = append(reached, m)
		}
	}
	return reached
}

// SortMilestoneIDs orders ids by their position in the milestone table.
// Unknown ids are kept at the end in their original order.
func SortMilestoneIDs(ids []string) []string {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	sorted := make([]string, 0, len(ids))
	for _, m := range Milestones {
		if known[m.ID] {
			sorted = append(sorted, m.ID)
			delete(known, m.ID)
		}
	}
	for _, id := range ids {
		if known[id] {
			sorted = append(sorted, id)
		}
	}
	return sorted
}

// CheckInPoints computes the points earned for a check-in
func CheckInPoints(currentStreak int, locationType string) int {
	streakBonus := currentStreak
	if streakBonus > streakBonusCap {
		streakBonus = streakBonusCap
	}

	points := basePoints + streakBonus*streakBonusEach
	if locationType == locationTypeGym {
		points += gymBonusPoints
	}
	return points
}

// StreakMessage returns the encouragement shown after a check-in
func StreakMessage(streak int) string {
	switch {
	case streak == 1:
		return "First step taken! You've got this! 🌟"
	case streak == 7:
		return "One week strong! You're building momentum! 💪"
	case streak == 14:
		return "Two weeks! You're proving your discipline! 🔥"
	case streak == 30:
		return "30 days! You're unstoppable! 👑"
	case streak >= 100:
		return fmt.Sprintf("%d days! You're a legend! 🏆", streak)
	case streak >= 30:
		return fmt.Sprintf("%d days! True warrior spirit! ⚔️", streak)
	case streak >= 7:
		return fmt.Sprintf("%d days! Keep the fire burning! 🔥", streak)
	default:
		return fmt.Sprintf("Day %d! Every step counts! 💪", streak)
	}
}
