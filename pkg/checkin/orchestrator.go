package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/metrics"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	manualLocationType = "general"
	manualLocationName = "Manual Check-in"

	maxNoteLength = 500
)

// MilestoneChecker awards milestone badges for post-update counters
type MilestoneChecker interface {
	CheckMilestones(ctx context.Context, userID string, currentStreak, totalCheckIns int) ([]*service.Reward, error)
}

// Listener is notified after a check-in has been committed and the user lock released
type Listener interface {
	CheckInCompleted(ctx context.Context, outcome *Outcome)
}

// Request is a check-in submitted by a user. A zero At means now.
type Request struct {
	UserID     string
	LocationID string
	Mood       string
	Note       string
	At         time.Time
}

// Result is returned to the caller of PerformCheckIn
type Result struct {
	CheckInID                 string            `json:"checkInId"`
	CurrentStreak             int               `json:"currentStreak"`
	LongestStreak             int               `json:"longestStreak"`
	TotalCheckIns             int               `json:"totalCheckIns"`
	LevelUp                   bool              `json:"levelUp"`
	NewLevel                  int               `json:"newLevel"`
	LevelCompletionPercentage int               `json:"levelCompletionPercentage"`
	PointsEarned              int               `json:"pointsEarned"`
	TotalPoints               int               `json:"totalPoints"`
	Message                   string            `json:"message"`
	MilestonesAwarded         []*service.Reward `json:"milestonesAwarded"`
}

// Outcome carries everything downstream reactions need about a committed check-in
type Outcome struct {
	Result   *Result
	State    *state.UserState
	Event    *service.CheckInEvent
	Location *service.Location
}

// Journey summarises a user's progress
type Journey struct {
	Level                     int             `json:"level"`
	TotalCheckIns             int             `json:"totalCheckIns"`
	CurrentStreak             int             `json:"currentStreak"`
	LongestStreak             int             `json:"longestStreak"`
	LevelCompletionPercentage int             `json:"levelCompletionPercentage"`
	MilestonesAchieved        []string        `json:"milestonesAchieved"`
	LastCheckIn               *time.Time      `json:"lastCheckIn"`
	TotalPoints               int             `json:"totalPoints"`
	Stats                     state.UserStats `json:"stats"`
}

// Export is the complete personal data held for a user
type Export struct {
	ExportedAt time.Time               `json:"exportedAt"`
	User       *state.UserState        `json:"user"`
	Milestones []string                `json:"milestones"`
	CheckIns   []*service.CheckInEvent `json:"checkIns"`
	Rewards    []*service.Reward       `json:"rewards"`
}

// Config holds the orchestrator's collaborators
type Config struct {
	Users      service.UserStore
	CheckIns   service.CheckInStore
	Locations  service.LocationStore
	Rewards    service.RewardStore
	Locker     service.Locker
	Milestones MilestoneChecker
	Policy     state.StreakPolicy
	Listener   Listener
	Now        func() time.Time
}

// Orchestrator runs check-ins end to end.
type Orchestrator struct {
	cfg Config
}

// NewOrchestrator creates an orchestrator. Policy defaults to hours-since-last.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Policy == nil {
		cfg.Policy = state.HoursSinceLastPolicy{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{cfg: cfg}
}

// PerformCheckIn records a check-in and updates streak, level, points and milestones.
func (o *Orchestrator) PerformCheckIn(ctx context.Context, req Request) (*Result, error) {
	if req.UserID == "" {
		return nil, apperr.Unauthorized("user is required")
	}
	if !service.ValidMood(req.Mood) {
		return nil, apperr.Validation("mood must be one of %s", strings.Join(service.Moods, ", "))
	}
	if len([]rune(req.Note)) > maxNoteLength {
		return nil, apperr.Validation("note must be at most %d characters", maxNoteLength)
	}

	now := req.At
	if now.IsZero() {
		now = o.cfg.Now()
	}
	now = now.UTC()

	var location *service.Location
	if req.LocationID != "" {
		loc, err := o.cfg.Locations.GetLocation(ctx, req.LocationID)
		if service.IsNotFound(err) {
			return nil, apperr.NotFound("location not found")
		}
		if err != nil {
			return nil, err
		}
		location = loc
	}

	unlock, err := o.cfg.Locker.Lock(ctx, service.UserLockKey(req.UserID))
	if errors.Is(err, service.ErrLockNotAcquired) {
		return nil, apperr.Conflict("another check-in is in progress")
	}
	if err != nil {
		return nil, err
	}

	outcome, err := o.checkInLocked(ctx, req, now, location)

	if unlockErr := unlock(context.Background()); unlockErr != nil {
		logrus.Warnf("check-in lock for user %s not released cleanly: %v", req.UserID, unlockErr)
	}
	if err != nil {
		return nil, err
	}

	metrics.CheckInsTotal.WithLabelValues(outcome.Event.LocationType).Inc()
	if outcome.Result.LevelUp {
		metrics.LevelUpsTotal.WithLabelValues(fmt.Sprint(outcome.Result.NewLevel)).Inc()
	}

	if o.cfg.Listener != nil {
		o.cfg.Listener.CheckInCompleted(ctx, outcome)
	}

	return outcome.Result, nil
}

// checkInLocked runs the read-modify-write part of a check-in. Caller holds the user lock.
func (o *Orchestrator) checkInLocked(ctx context.Context, req Request, now time.Time, location *service.Location) (*Outcome, error) {
	current, err := o.cfg.Users.GetUserState(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := state.ValidateCheckInTime(current, now); err != nil {
		return nil, apperr.Validation("%v", err)
	}

	streak := o.cfg.Policy.Next(current, now)

	locationType, locationName := manualLocationType, manualLocationName
	if location != nil {
		locationType, locationName = location.Type, location.Name
	}
	points := state.CheckInPoints(streak.CurrentStreak, locationType)
	level := state.EvaluateLevel(current.JourneyLevel, streak.TotalCheckIns)

	update := service.CheckInUpdate{
		UserID:        req.UserID,
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
		TotalCheckIns: streak.TotalCheckIns,
		JourneyLevel:  level.Level,
		LastCheckInAt: now,
		PointsDelta:   points,
	}
	if locationType == "gym" {
		update.GymVisitDelta = 1
	}

	updated, err := o.cfg.Users.ApplyCheckIn(ctx, update)
	if err != nil {
		return nil, err
	}

	event := &service.CheckInEvent{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		LocationID:   req.LocationID,
		LocationType: locationType,
		LocationName: locationName,
		Timestamp:    now,
		Mood:         req.Mood,
		Note:         req.Note,
		PointsEarned: points,
		StreakDay:    streak.CurrentStreak,
		Verified:     req.LocationID != "",
	}
	if err := o.cfg.CheckIns.CreateCheckIn(ctx, event); err != nil {
		return nil, err
	}

	if location != nil {
		if err := o.cfg.Locations.IncrementCheckInCount(ctx, location.ID); err != nil {
			return nil, err
		}
	}

	awarded, err := o.cfg.Milestones.CheckMilestones(ctx, req.UserID, streak.CurrentStreak, streak.TotalCheckIns)
	if err != nil {
		return nil, err
	}
	for _, badge := range awarded {
		if !updated.HasMilestone(badge.MilestoneID) {
			updated.MilestonesAchieved = append(updated.MilestonesAchieved, badge.MilestoneID)
		}
	}
	updated.MilestonesAchieved = state.SortMilestoneIDs(updated.MilestonesAchieved)

	logrus.Infof("user %s checked in: streak=%d total=%d level=%d points=%d milestones=%d",
		req.UserID, streak.CurrentStreak, streak.TotalCheckIns, level.Level, points, len(awarded))

	return &Outcome{
		Result: &Result{
			CheckInID:                 event.ID,
			CurrentStreak:             streak.CurrentStreak,
			LongestStreak:             streak.LongestStreak,
			TotalCheckIns:             streak.TotalCheckIns,
			LevelUp:                   level.LeveledUp,
			NewLevel:                  level.Level,
			LevelCompletionPercentage: level.Percent,
			PointsEarned:              points,
			TotalPoints:               updated.TotalPoints,
			Message:                   state.StreakMessage(streak.CurrentStreak),
			MilestonesAwarded:         awarded,
		},
		State:    updated,
		Event:    event,
		Location: location,
	}, nil
}

// Journey returns the user's progress summary
func (o *Orchestrator) Journey(ctx context.Context, userID string) (*Journey, error) {
	s, err := o.cfg.Users.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Journey{
		Level:                     s.JourneyLevel,
		TotalCheckIns:             s.TotalCheckIns,
		CurrentStreak:             s.CurrentStreak,
		LongestStreak:             s.LongestStreak,
		LevelCompletionPercentage: state.PercentToNext(s.JourneyLevel, s.TotalCheckIns),
		MilestonesAchieved:        s.MilestonesAchieved,
		LastCheckIn:               s.LastCheckInAt,
		TotalPoints:               s.TotalPoints,
		Stats:                     s.Stats,
	}, nil
}

// ExportUserData collects the user's state, check-ins and rewards
func (o *Orchestrator) ExportUserData(ctx context.Context, userID string) (*Export, error) {
	s, err := o.cfg.Users.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	checkIns, err := o.cfg.CheckIns.ListCheckInsByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	rewards, err := o.cfg.Rewards.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	logrus.Infof("exported data for user %s: %d check-ins, %d rewards", userID, len(checkIns), len(rewards))
	return &Export{
		ExportedAt: o.cfg.Now().UTC(),
		User:       s,
		Milestones: s.MilestonesAchieved,
		CheckIns:   checkIns,
		Rewards:    rewards,
	}, nil
}
