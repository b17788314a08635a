package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownCache throttles reactive insight generation per trainer so a
// burst of record writes does not re-run the whole analysis every time.
type CooldownCache interface {
	// Active reports whether the trainer is still inside the cooldown.
	Active(ctx context.Context, trainerID string) (bool, error)
	// Mark starts a new cooldown for the trainer.
	Mark(ctx context.Context, trainerID string) error
}

type cooldownCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCooldownCache creates a cooldown cache with the given window.
func NewCooldownCache(client *redis.Client, ttl time.Duration) CooldownCache {
	return &cooldownCache{client: client, ttl: ttl}
}

func (c *cooldownCache) key(trainerID string) string {
	return fmt.Sprintf("trainer:%s:insight_cooldown", trainerID)
}

func (c *cooldownCache) Active(ctx context.Context, trainerID string) (bool, error) {
	_, err := c.client.Get(ctx, c.key(trainerID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *cooldownCache) Mark(ctx context.Context, trainerID string) error {
	return c.client.Set(ctx, c.key(trainerID), "1", c.ttl).Err()
}
