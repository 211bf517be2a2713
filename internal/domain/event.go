package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CanonicalEvent is the single cross-source identity for one real-world
// match. Exactly one row exists per match regardless of how many sources
// report it; the fingerprint column enforces that at the storage layer.
type CanonicalEvent struct {
	ID          uuid.UUID
	Sport       string
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time // UTC
	Fingerprint string
	CreatedAt   time.Time
}

// SourceEventMapping links a source-local match id to a canonical event.
// A given (source, source event id) maps to at most one event, created at
// most once, and is never repointed.
type SourceEventMapping struct {
	SourceID      int64
	SourceEventID string
	EventID       uuid.UUID
	CreatedAt     time.Time
}

// fingerprintBucket coarsens kickoff times so that small scheduling drift
// between sources does not split one match into two identities. Sources
// that disagree by more than half a bucket rely on the resolver's alias
// search instead.
const fingerprintBucket = 30 * time.Minute

// EventFingerprint derives the stable identity digest for a match. Team
// names are lowercased and the kickoff is rounded to a 30-minute bucket
// before hashing, so the digest is insensitive to casing and minor drift.
func EventFingerprint(sport, homeTeam, awayTeam string, startTime time.Time) string {
	bucket := startTime.UTC().Round(fingerprintBucket)
	raw := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(sport)),
		strings.ToLower(strings.TrimSpace(homeTeam)),
		strings.ToLower(strings.TrimSpace(awayTeam)),
		bucket.Format(time.RFC3339),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:40]
}

// TeamAlias maps a source-reported spelling to a canonical team name.
type TeamAlias struct {
	Canonical string
	Alias     string
}
