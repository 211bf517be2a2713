package domain

import (
	"context"
	"time"
)

// AlertCache is the alerting collaborator's short-lived de-duplication
// state, keyed by legs fingerprint so it stays consistent with the
// persisted opportunity identity.
type AlertCache interface {
	// MarkSent records the fingerprint with a TTL and reports whether it
	// was newly recorded. A false result means an alert for the same leg
	// combination went out within the TTL.
	MarkSent(ctx context.Context, legsHash string, ttl time.Duration) (bool, error)
}

// LockManager provides distributed locking. The scan driver uses it only
// to skip redundant overlapping scans; correctness never depends on the
// lock, it relies on storage-level uniqueness.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus carries the new-opportunity stream to in-process and external
// subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter throttles requests per key. The API server uses it per
// client IP.
type RateLimiter interface {
	// Allow reports whether a request for the key is permitted under the
	// limit; an allowed request is counted against the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
