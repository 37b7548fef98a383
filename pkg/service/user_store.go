package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/sirupsen/logrus"
)

// user hash fields
const (
	fieldID              = "id"
	fieldCurrentStreak   = "currentStreak"
	fieldLongestStreak   = "longestStreak"
	fieldTotalCheckIns   = "totalCheckIns"
	fieldLastCheckInAt   = "lastCheckInAt"
	fieldJourneyLevel    = "journeyLevel"
	fieldTotalPoints     = "totalPoints"
	fieldGymVisits       = "gymVisits"
	fieldCoffeesGiven    = "coffeesGiven"
	fieldCoffeesReceived = "coffeesReceived"
	fieldCreatedAt       = "createdAt"
	fieldUpdatedAt       = "updatedAt"
)

// RedisUserStore implements UserStore with one Redis hash per user.
// Counters that other flows touch concurrently are written with HINCRBY.
type RedisUserStore struct {
	client redis.UniversalClient
	cfg    RedisUserStoreConfig
}

type RedisUserStoreConfig struct {
	// Now overrides the clock used for timestamps; defaults to time.Now
	Now func() time.Time
}

// NewRedisUserStore creates a new Redis-backed user store.
func NewRedisUserStore(client redis.UniversalClient, cfg RedisUserStoreConfig) *RedisUserStore {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RedisUserStore{
		client: client,
		cfg:    cfg,
	}
}

// GetUserState retrieves the user's state from Redis
func (r *RedisUserStore) GetUserState(ctx context.Context, userID string) (*state.UserState, error) {
	pipe := r.client.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, userKey(userID))
	milestonesCmd := pipe.HKeys(ctx, milestonesKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logrus.Errorf("failed to get state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	fields := fieldsCmd.Val()
	milestones := state.SortMilestoneIDs(milestonesCmd.Val())

	if len(fields) == 0 {
		logrus.Debugf("no existing state for user %s, returning new state", userID)
		s := state.NewUserState(userID, r.cfg.Now().UTC())
		s.MilestonesAchieved = milestones
		return s, nil
	}

	s, err := decodeUserState(userID, fields)
	if err != nil {
		logrus.Errorf("failed to decode state for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to decode user state: %w", err)
	}
	s.MilestonesAchieved = milestones

	return s, nil
}

// ApplyCheckIn writes streak counters and applies point increments in one transaction
func (r *RedisUserStore) ApplyCheckIn(ctx context.Context, u CheckInUpdate) (*state.UserState, error) {
	key := userKey(u.UserID)
	now := r.cfg.Now().UTC()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldID, u.UserID,
			fieldCurrentStreak, u.CurrentStreak,
			fieldLongestStreak, u.LongestStreak,
			fieldTotalCheckIns, u.TotalCheckIns,
			fieldJourneyLevel, u.JourneyLevel,
			fieldLastCheckInAt, u.LastCheckInAt.UnixMilli(),
			fieldUpdatedAt, now.UnixMilli(),
		)
		pipe.HSetNX(ctx, key, fieldCreatedAt, now.UnixMilli())
		if u.PointsDelta != 0 {
			pipe.HIncrBy(ctx, key, fieldTotalPoints, int64(u.PointsDelta))
		}
		if u.GymVisitDelta != 0 {
			pipe.HIncrBy(ctx, key, fieldGymVisits, int64(u.GymVisitDelta))
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to apply check-in for user %s: %v", u.UserID, err)
		return nil, fmt.Errorf("failed to apply check-in: %w", err)
	}

	logrus.Debugf("applied check-in for user %s: streak=%d total=%d level=%d",
		u.UserID, u.CurrentStreak, u.TotalCheckIns, u.JourneyLevel)
	return r.GetUserState(ctx, u.UserID)
}

// IncrementCounters applies point and coffee increments for a user
func (r *RedisUserStore) IncrementCounters(ctx context.Context, userID string, d CounterDelta) error {
	key := userKey(userID)
	now := r.cfg.Now().UTC()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldID, userID, fieldUpdatedAt, now.UnixMilli())
		pipe.HSetNX(ctx, key, fieldCreatedAt, now.UnixMilli())
		if d.TotalPoints != 0 {
			pipe.HIncrBy(ctx, key, fieldTotalPoints, int64(d.TotalPoints))
		}
		if d.CoffeesGiven != 0 {
			pipe.HIncrBy(ctx, key, fieldCoffeesGiven, int64(d.CoffeesGiven))
		}
		if d.CoffeesReceived != 0 {
			pipe.HIncrBy(ctx, key, fieldCoffeesReceived, int64(d.CoffeesReceived))
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to increment counters for user %s: %v", userID, err)
		return fmt.Errorf("failed to increment counters: %w", err)
	}
	return nil
}

func decodeUserState(userID string, fields map[string]string) (*state.UserState, error) {
	var err error
	intField := func(name string) int {
		raw, ok := fields[name]
		if !ok || err != nil {
			return 0
		}
		v, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			err = fmt.Errorf("field %s: %w", name, convErr)
			return 0
		}
		return int(v)
	}
	msField := func(name string) *time.Time {
		if _, ok := fields[name]; !ok {
			return nil
		}
		t := time.UnixMilli(int64(intField(name))).UTC()
		return &t
	}

	s := &state.UserState{
		ID:            userID,
		CurrentStreak: intField(fieldCurrentStreak),
		LongestStreak: intField(fieldLongestStreak),
		TotalCheckIns: intField(fieldTotalCheckIns),
		LastCheckInAt: msField(fieldLastCheckInAt),
		JourneyLevel:  intField(fieldJourneyLevel),
		TotalPoints:   intField(fieldTotalPoints),
		Stats: state.UserStats{
			GymVisits:       intField(fieldGymVisits),
			CoffeesGiven:    intField(fieldCoffeesGiven),
			CoffeesReceived: intField(fieldCoffeesReceived),
		},
	}
	if t := msField(fieldCreatedAt); t != nil {
		s.CreatedAt = *t
	}
	if t := msField(fieldUpdatedAt); t != nil {
		s.UpdatedAt = *t
	}
	if err != nil {
		return nil, err
	}

	// sponsors can hold counters before their first check-in
	if s.JourneyLevel < state.MinLevel {
		s.JourneyLevel = state.MinLevel
	}
	return s, nil
}
