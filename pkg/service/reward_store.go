package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// awardMilestoneScript records the milestone and writes its badge only if the
// milestone is not yet held. Returns 1 when the badge was written.
//
// KEYS: milestones hash, reward doc, user rewards index
// ARGV: milestone id, reward id, reward json, earnedAt ms
var awardMilestoneScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[3])
redis.call("ZADD", KEYS[3], ARGV[4], ARGV[2])
return 1
`)

// RedisRewardStore implements RewardStore. Each reward is a JSON document;
// per-user and active-voucher sorted sets index it.
type RedisRewardStore struct {
	client redis.UniversalClient
	cfg    RedisRewardStoreConfig
}

type RedisRewardStoreConfig struct{}

// NewRedisRewardStore creates a new Redis-backed reward store.
func NewRedisRewardStore(client redis.UniversalClient, cfg RedisRewardStoreConfig) *RedisRewardStore {
	return &RedisRewardStore{
		client: client,
		cfg:    cfg,
	}
}

// CreateReward stores a new reward and indexes it
func (r *RedisRewardStore) CreateReward(ctx context.Context, reward *Reward) error {
	data, err := json.Marshal(reward)
	if err != nil {
		return fmt.Errorf("failed to marshal reward: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rewardKey(reward.ID), data, 0)
		if reward.UserID != "" {
			pipe.ZAdd(ctx, userRewardsKey(reward.UserID), &redis.Z{
				Score:  float64(reward.EarnedAt.UnixMilli()),
				Member: reward.ID,
			})
		}
		if reward.ExpiresAt != nil && reward.Status == RewardStatusActive {
			pipe.ZAdd(ctx, activeVouchersKey, &redis.Z{
				Score:  float64(reward.ExpiresAt.UnixMilli()),
				Member: reward.ID,
			})
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to create reward %s: %v", reward.ID, err)
		return fmt.Errorf("failed to create reward: %w", err)
	}

	logrus.Debugf("created reward %s (%s) for user %q", reward.ID, reward.Type, reward.UserID)
	return nil
}

// GetReward loads a reward by id
func (r *RedisRewardStore) GetReward(ctx context.Context, rewardID string) (*Reward, error) {
	data, err := r.client.Get(ctx, rewardKey(rewardID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		logrus.Errorf("failed to get reward %s: %v", rewardID, err)
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return decodeReward(data)
}

// UpdateReward applies fn under WATCH and commits only if the document is unchanged
func (r *RedisRewardStore) UpdateReward(ctx context.Context, rewardID string, fn func(*Reward) error) (*Reward, error) {
	key := rewardKey(rewardID)
	var updated *Reward

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		reward, err := decodeReward(data)
		if err != nil {
			return err
		}
		previousOwner := reward.UserID

		if err := fn(reward); err != nil {
			return err
		}

		newData, err := json.Marshal(reward)
		if err != nil {
			return fmt.Errorf("failed to marshal reward: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, 0)
			if reward.Status != RewardStatusActive {
				pipe.ZRem(ctx, activeVouchersKey, reward.ID)
			}
			// bearer vouchers join the owner's index when claimed
			if previousOwner == "" && reward.UserID != "" {
				pipe.ZAdd(ctx, userRewardsKey(reward.UserID), &redis.Z{
					Score:  float64(reward.EarnedAt.UnixMilli()),
					Member: reward.ID,
				})
			}
			return nil
		})
		if err != nil {
			return err
		}

		updated = reward
		return nil
	}

	if err := watchWithRetry(ctx, r.client, txf, key); err != nil {
		return nil, err
	}
	return updated, nil
}

// ListRewardsByUser returns all rewards of a user, newest first
func (r *RedisRewardStore) ListRewardsByUser(ctx context.Context, userID string) ([]*Reward, error) {
	ids, err := r.client.ZRevRange(ctx, userRewardsKey(userID), 0, -1).Result()
	if err != nil {
		logrus.Errorf("failed to list rewards for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return r.loadRewards(ctx, ids)
}

// ListExpiringVouchers returns ids of active vouchers with expiresAt before t
func (r *RedisRewardStore) ListExpiringVouchers(ctx context.Context, before time.Time, limit int) ([]string, error) {
	ids, err := r.client.ZRangeByScore(ctx, activeVouchersKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(before.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring vouchers: %w", err)
	}
	return ids, nil
}

// DropExpiringVoucher removes rewardID from the active-voucher index
func (r *RedisRewardStore) DropExpiringVoucher(ctx context.Context, rewardID string) error {
	if err := r.client.ZRem(ctx, activeVouchersKey, rewardID).Err(); err != nil {
		return fmt.Errorf("failed to drop voucher from expiry index: %w", err)
	}
	return nil
}

// AwardMilestone writes the badge atomically with the milestone marker
func (r *RedisRewardStore) AwardMilestone(ctx context.Context, userID, milestoneID string, badge *Reward) (bool, error) {
	data, err := json.Marshal(badge)
	if err != nil {
		return false, fmt.Errorf("failed to marshal badge: %w", err)
	}

	keys := []string{milestonesKey(userID), rewardKey(badge.ID), userRewardsKey(userID)}
	created, err := awardMilestoneScript.Run(ctx, r.client, keys,
		milestoneID, badge.ID, data, badge.EarnedAt.UnixMilli()).Int()
	if err != nil {
		logrus.Errorf("failed to award milestone %s to user %s: %v", milestoneID, userID, err)
		return false, fmt.Errorf("failed to award milestone: %w", err)
	}

	if created == 1 {
		logrus.Infof("awarded milestone %s to user %s", milestoneID, userID)
	}
	return created == 1, nil
}

// ListMilestones returns the ids of milestones the user holds
func (r *RedisRewardStore) ListMilestones(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.HKeys(ctx, milestonesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return ids, nil
}

func (r *RedisRewardStore) loadRewards(ctx context.Context, ids []string) ([]*Reward, error) {
	if len(ids) == 0 {
		return []*Reward{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rewardKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load rewards: %w", err)
	}

	rewards := make([]*Reward, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			logrus.Warnf("reward %s is indexed but missing", ids[i])
			continue
		}
		reward, err := decodeReward([]byte(raw))
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func decodeReward(data []byte) (*Reward, error) {
	var reward Reward
	if err := json.Unmarshal(data, &reward); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reward: %w", err)
	}
	if reward.Status == "" {
		reward.Status = RewardStatusActive
		if reward.Redeemed {
			reward.Status = RewardStatusRedeemed
		}
	}
	return &reward, nil
}

// IsNotFound reports whether err is a store miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
