// README: Driver cool-down markers backed by Redis TTL keys. The directory
// is only weakly consistent, so the marker keeps a rejecting driver out of
// the candidate scan even while the directory still shows it AVAILABLE.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "assignment:driver:%d:cooldown"

type CooldownStore struct {
	redis *redis.Client
}

func NewCooldownStore(r *redis.Client) *CooldownStore {
	return &CooldownStore{redis: r}
}

func (s *CooldownStore) Set(ctx context.Context, driverID int64, ttl time.Duration) error {
	return s.redis.Set(ctx, cooldownKey(driverID), "1", ttl).Err()
}

func (s *CooldownStore) Active(ctx context.Context, driverID int64) (bool, error) {
	val, err := s.redis.Get(ctx, cooldownKey(driverID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func cooldownKey(driverID int64) string {
	return fmt.Sprintf(cooldownKeyPrefix, driverID)
}
