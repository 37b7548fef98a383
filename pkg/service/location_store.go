package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// location stats hash fields
const (
	statCheckIns    = "checkInCount"
	statReviews     = "reviewCount"
	statRatingTotal = "ratingTotal"
)

// RedisLocationStore implements LocationStore. Static venue data is a JSON
// document; counters live in a separate hash so they can be incremented
// without rewriting the document.
type RedisLocationStore struct {
	client redis.UniversalClient
	cfg    RedisLocationStoreConfig
}

type RedisLocationStoreConfig struct{}

// NewRedisLocationStore creates a new Redis-backed location store.
func NewRedisLocationStore(client redis.UniversalClient, cfg RedisLocationStoreConfig) *RedisLocationStore {
	return &RedisLocationStore{
		client: client,
		cfg:    cfg,
	}
}

// SaveLocation upserts the venue document. Counters are seeded from the
// document only when the location has no stats yet.
func (r *RedisLocationStore) SaveLocation(ctx context.Context, location *Location) error {
	doc := *location
	doc.CheckInCount = 0
	doc.ReviewCount = 0

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	statsKey := locationStatsKey(location.ID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, locationKey(location.ID), data, 0)
		pipe.SAdd(ctx, locationsKey, location.ID)
		pipe.HSetNX(ctx, statsKey, statCheckIns, location.CheckInCount)
		pipe.HSetNX(ctx, statsKey, statReviews, location.ReviewCount)
		pipe.HSetNX(ctx, statsKey, statRatingTotal,
			strconv.FormatFloat(location.Rating*float64(location.ReviewCount), 'f', -1, 64))
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to save location %s: %v", location.ID, err)
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// GetLocation loads a location with its live counters
func (r *RedisLocationStore) GetLocation(ctx context.Context, locationID string) (*Location, error) {
	pipe := r.client.Pipeline()
	docCmd := pipe.Get(ctx, locationKey(locationID))
	statsCmd := pipe.HGetAll(ctx, locationStatsKey(locationID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	data, err := docCmd.Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return decodeLocation(data, statsCmd.Val())
}

// ListLocations returns every known location ordered by id
func (r *RedisLocationStore) ListLocations(ctx context.Context) ([]*Location, error) {
	ids, err := r.client.SMembers(ctx, locationsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	sort.Strings(ids)

	pipe := r.client.Pipeline()
	docCmds := make([]*redis.StringCmd, len(ids))
	statsCmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		docCmds[i] = pipe.Get(ctx, locationKey(id))
		statsCmds[i] = pipe.HGetAll(ctx, locationStatsKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to load locations: %w", err)
		}
	}

	locations := make([]*Location, 0, len(ids))
	for i, id := range ids {
		data, err := docCmds[i].Bytes()
		if err == redis.Nil {
			logrus.Warnf("location %s is indexed but missing", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load location %s: %w", id, err)
		}
		loc, err := decodeLocation(data, statsCmds[i].Val())
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// IncrementCheckInCount bumps the location's check-in counter
func (r *RedisLocationStore) IncrementCheckInCount(ctx context.Context, locationID string) error {
	if err := r.client.HIncrBy(ctx, locationStatsKey(locationID), statCheckIns, 1).Err(); err != nil {
		logrus.Errorf("failed to increment check-ins for location %s: %v", locationID, err)
		return fmt.Errorf("failed to increment check-in count: %w", err)
	}
	return nil
}

// AddReview stores the review and folds its rating into the location counters
func (r *RedisLocationStore) AddReview(ctx context.Context, review *Review) (*Location, error) {
	data, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review: %w", err)
	}

	statsKey := locationStatsKey(review.LocationID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, reviewKey(review.ID), data, 0)
		pipe.ZAdd(ctx, locationReviewsKey(review.LocationID), &redis.Z{
			Score:  float64(review.CreatedAt.UnixMilli()),
			Member: review.ID,
		})
		pipe.HIncrBy(ctx, statsKey, statReviews, 1)
		pipe.HIncrByFloat(ctx, statsKey, statRatingTotal, float64(review.Rating))
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to add review to location %s: %v", review.LocationID, err)
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	return r.GetLocation(ctx, review.LocationID)
}

// ListReviews returns a page of reviews, newest first
func (r *RedisLocationStore) ListReviews(ctx context.Context, locationID string, offset, limit int) ([]*Review, int, error) {
	key := locationReviewsKey(locationID)

	total, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	ids, err := r.client.ZRevRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	if len(ids) == 0 {
		return []*Review{}, int(total), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reviewKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load reviews: %w", err)
	}

	reviews := make([]*Review, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var review Review
		if err := json.Unmarshal([]byte(raw), &review); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal review: %w", err)
		}
		reviews = append(reviews, &review)
	}
	return reviews, int(total), nil
}

func decodeLocation(data []byte, stats map[string]string) (*Location, error) {
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}

	if v, err := strconv.Atoi(stats[statCheckIns]); err == nil {
		loc.CheckInCount = v
	}
	if v, err := strconv.Atoi(stats[statReviews]); err == nil {
		loc.ReviewCount = v
	}
	if total, err := strconv.ParseFloat(stats[statRatingTotal], 64); err == nil && loc.ReviewCount > 0 {
		loc.Rating = math.Round(total/float64(loc.ReviewCount)*10) / 10
	}
	return &loc, nil
}
