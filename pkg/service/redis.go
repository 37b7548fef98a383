package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "nightchill:"

	// maxTxRetries bounds optimistic transaction retries on WATCH conflicts
	maxTxRetries = 8
)

func userKey(userID string) string {
	return fmt.Sprintf("%suser:%s", keyPrefix, userID)
}

func userLockKey(userID string) string {
	return fmt.Sprintf("%slock:user:%s", keyPrefix, userID)
}

func milestonesKey(userID string) string {
	return fmt.Sprintf("%smilestones:%s", keyPrefix, userID)
}

func rewardKey(rewardID string) string {
	return fmt.Sprintf("%sreward:%s", keyPrefix, rewardID)
}

func userRewardsKey(userID string) string {
	return fmt.Sprintf("%srewards:user:%s", keyPrefix, userID)
}

func checkInKey(checkInID string) string {
	return fmt.Sprintf("%scheckin:%s", keyPrefix, checkInID)
}

func userCheckInsKey(userID string) string {
	return fmt.Sprintf("%scheckins:user:%s", keyPrefix, userID)
}

func locationKey(locationID string) string {
	return fmt.Sprintf("%slocation:%s", keyPrefix, locationID)
}

func locationStatsKey(locationID string) string {
	return fmt.Sprintf("%slocation:%s:stats", keyPrefix, locationID)
}

func locationReviewsKey(locationID string) string {
	return fmt.Sprintf("%slocation:%s:reviews", keyPrefix, locationID)
}

func reviewKey(reviewID string) string {
	return fmt.Sprintf("%sreview:%s", keyPrefix, reviewID)
}

const (
	activeVouchersKey = keyPrefix + "vouchers:active"
	locationsKey      = keyPrefix + "locations"
)

// UserLockKey exposes the lock key used for per-user check-in serialisation
func UserLockKey(userID string) string {
	return userLockKey(userID)
}

// watchWithRetry runs an optimistic transaction, retrying when a watched key
// changed before EXEC.
func watchWithRetry(ctx context.Context, client redis.UniversalClient, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			logrus.Debugf("optimistic transaction conflict on %v, retry %d", keys, i+1)
			continue
		}
		return err
	}
	return fmt.Errorf("optimistic transaction on %v did not converge after %d attempts", keys, maxTxRetries)
}
