package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisCheckInStore implements CheckInStore with JSON documents and a
// per-user sorted set ordered by timestamp.
type RedisCheckInStore struct {
	client redis.UniversalClient
	cfg    RedisCheckInStoreConfig
}

type RedisCheckInStoreConfig struct{}

// NewRedisCheckInStore creates a new Redis-backed check-in store.
func NewRedisCheckInStore(client redis.UniversalClient, cfg RedisCheckInStoreConfig) *RedisCheckInStore {
	return &RedisCheckInStore{
		client: client,
		cfg:    cfg,
	}
}

// CreateCheckIn stores the event and indexes it under its user
func (r *RedisCheckInStore) CreateCheckIn(ctx context.Context, event *CheckInEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal check-in: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, checkInKey(event.ID), data, 0)
		pipe.ZAdd(ctx, userCheckInsKey(event.UserID), &redis.Z{
			Score:  float64(event.Timestamp.UnixMilli()),
			Member: event.ID,
		})
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to create check-in for user %s: %v", event.UserID, err)
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// ListCheckInsByUser returns the user's check-ins, newest first
func (r *RedisCheckInStore) ListCheckInsByUser(ctx context.Context, userID string, limit int) ([]*CheckInEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := r.client.ZRevRange(ctx, userCheckInsKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	if len(ids) == 0 {
		return []*CheckInEvent{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = checkInKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load check-ins: %w", err)
	}

	events := make([]*CheckInEvent, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			logrus.Warnf("check-in %s is indexed but missing", ids[i])
			continue
		}
		var event CheckInEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal check-in: %w", err)
		}
		events = append(events, &event)
	}
	return events, nil
}
