package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// AlertCache implements domain.AlertCache using SETNX with a TTL. One key
// per legs fingerprint; while the key lives, alerts for the same leg
// combination are suppressed.
type AlertCache struct {
	rdb *redis.Client
}

// NewAlertCache creates an AlertCache backed by the given Client.
func NewAlertCache(c *Client) *AlertCache {
	return &AlertCache{rdb: c.Underlying()}
}

func alertKey(legsHash string) string {
	return "alert:" + legsHash
}

// MarkSent records the fingerprint with a TTL and reports whether it was
// newly recorded. A false result means an alert for the same combination
// went out within the TTL.
func (ac *AlertCache) MarkSent(ctx context.Context, legsHash string, ttl time.Duration) (bool, error) {
	ok, err := ac.rdb.SetNX(ctx, alertKey(legsHash), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: mark alert %s: %w", legsHash, err)
	}
	return ok, nil
}

// Compile-time interface check.
var _ domain.AlertCache = (*AlertCache)(nil)
