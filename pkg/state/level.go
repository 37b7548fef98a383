// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import "math"

const (
	MinLevel = 1
	MaxLevel = 5
)

// LevelThresholds holds the cumulative check-ins required to reach levels 1..5
var LevelThresholds = [MaxLevel]int{0, 3, 10, 21, 50}

// LevelProgress is the outcome of evaluating a user's journey level
type LevelProgress struct {
	Level     int
	Percent   int
	LeveledUp bool
}

// LevelFor returns the level justified by the cumulative check-in count
func LevelFor(checkIns int) int {
	for level := MaxLevel; level > MinLevel; level-- {
		if checkIns >= LevelThresholds[level-1] {
			return level
		}
	}
	return MinLevel
}

// PercentToNext returns the completion percentage towards the next level
func PercentToNext(level, checkIns int) int {
	if level >= MaxLevel {
		return 100
	}
	if level < MinLevel {
		level = MinLevel
	}

	floor := LevelThresholds[level-1]
	ceiling := LevelThresholds[level]
	percent := int(math.Round(100 * float64(checkIns-floor) / float64(ceiling-floor)))

	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// EvaluateLevel computes the new level without ever lowering the current one
func EvaluateLevel(currentLevel, checkIns int) LevelProgress {
	level := LevelFor(checkIns)
	if level < currentLevel {
		level = currentLevel
	}

	return LevelProgress{
		Level:     level,
		Percent:   PercentToNext(level, checkIns),
		LeveledUp: level > currentLevel,
	}
}
