package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// fakeEventStore is an in-memory EventStore with the same insert-if-absent
// semantics as the postgres implementation.
type fakeEventStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]domain.CanonicalEvent
	byFp     map[string]uuid.UUID
	mappings map[string]uuid.UUID // "sourceID|sourceEventID"

	createCalls int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:   make(map[uuid.UUID]domain.CanonicalEvent),
		byFp:     make(map[string]uuid.UUID),
		mappings: make(map[string]uuid.UUID),
	}
}

func mappingKey(sourceID int64, sourceEventID string) string {
	return fmt.Sprintf("%d|%s", sourceID, sourceEventID)
}

func (f *fakeEventStore) GetMapped(_ context.Context, sourceID int64, sourceEventID string) (domain.CanonicalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.mappings[mappingKey(sourceID, sourceEventID)]
	if !ok {
		return domain.CanonicalEvent{}, domain.ErrNotFound
	}
	return f.events[id], nil
}

func (f *fakeEventStore) FindCandidates(_ context.Context, sport, home, away string, from, to time.Time) ([]domain.CanonicalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CanonicalEvent
	for _, ev := range f.events {
		if ev.Sport == sport && ev.HomeTeam == home && ev.AwayTeam == away &&
			!ev.StartTime.Before(from) && !ev.StartTime.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) MapEvent(_ context.Context, sourceID int64, sourceEventID string, eventID uuid.UUID) (domain.CanonicalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := mappingKey(sourceID, sourceEventID)
	if existing, ok := f.mappings[key]; ok {
		return f.events[existing], nil
	}
	f.mappings[key] = eventID
	return f.events[eventID], nil
}

func (f *fakeEventStore) CreateEvent(_ context.Context, ev domain.CanonicalEvent) (domain.CanonicalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if id, ok := f.byFp[ev.Fingerprint]; ok {
		return f.events[id], nil
	}
	f.events[ev.ID] = ev
	f.byFp[ev.Fingerprint] = ev.ID
	return ev, nil
}

var _ domain.EventStore = (*fakeEventStore)(nil)

func sourceRecord(sourceID int64, matchID, home, away string, start time.Time) domain.SourceRecord {
	return domain.SourceRecord{
		SourceID:      sourceID,
		SourceEventID: matchID,
		Sport:         "soccer",
		HomeTeam:      home,
		AwayTeam:      away,
		StartTime:     start,
		MarketLabel:   domain.MarketMatchWinner,
		Outcomes:      map[string]float64{domain.OutcomeHome: 2.1, domain.OutcomeAway: 2.0},
		ObservedAt:    start.Add(-24 * time.Hour),
	}
}

func newTestResolver(store *fakeEventStore, aliases []domain.TeamAlias) *Resolver {
	return NewResolver(store, NewAliasIndex(aliases), ResolverConfig{StartTolerance: 3 * time.Hour}, slog.Default())
}

func TestResolveCreatesThenReuses(t *testing.T) {
	store := newFakeEventStore()
	r := newTestResolver(store, nil)
	start := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)
	rec := sourceRecord(1, "m-1", "Arsenal FC", "Chelsea", start)

	ev1, err := r.Resolve(context.Background(), rec)
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	ev2, err := r.Resolve(context.Background(), rec)
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if ev1.ID != ev2.ID {
		t.Errorf("repeated resolution produced different events: %s vs %s", ev1.ID, ev2.ID)
	}
	if store.createCalls != 1 {
		t.Errorf("CreateEvent called %d times, want 1", store.createCalls)
	}
	if len(store.events) != 1 {
		t.Errorf("store holds %d events, want 1", len(store.events))
	}
}

func TestResolveConvergesAcrossSources(t *testing.T) {
	store := newFakeEventStore()
	aliases := []domain.TeamAlias{
		{Canonical: "arsenal", Alias: "arsenal london"},
		{Canonical: "chelsea", Alias: "chelsea london"},
	}
	r := newTestResolver(store, aliases)
	start := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)

	ev1, err := r.Resolve(context.Background(), sourceRecord(1, "a-77", "Arsenal FC", "Chelsea", start))
	if err != nil {
		t.Fatalf("source 1 Resolve() error: %v", err)
	}
	// Source 2 spells the teams differently and reports kickoff an hour off.
	ev2, err := r.Resolve(context.Background(), sourceRecord(2, "b-13", "Arsenal London", "Chelsea London", start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("source 2 Resolve() error: %v", err)
	}
	if ev1.ID != ev2.ID {
		t.Errorf("two sources resolved to different events: %s vs %s", ev1.ID, ev2.ID)
	}
}

func TestResolveAmbiguity(t *testing.T) {
	store := newFakeEventStore()
	r := newTestResolver(store, nil)
	start := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)

	// Two stored events with identical teams inside the tolerance window.
	for _, offset := range []time.Duration{0, 2 * time.Hour} {
		_, err := store.CreateEvent(context.Background(), domain.CanonicalEvent{
			ID:          uuid.New(),
			Sport:       "soccer",
			HomeTeam:    "arsenal",
			AwayTeam:    "chelsea",
			StartTime:   start.Add(offset),
			Fingerprint: domain.EventFingerprint("soccer", "arsenal", "chelsea", start.Add(offset)),
		})
		if err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	_, err := r.Resolve(context.Background(), sourceRecord(3, "c-9", "Arsenal", "Chelsea", start.Add(time.Hour)))
	if !errors.Is(err, domain.ErrAmbiguousEvent) {
		t.Errorf("Resolve() error = %v, want ErrAmbiguousEvent", err)
	}
}

func TestResolveMappingNeverRepointed(t *testing.T) {
	store := newFakeEventStore()
	r := newTestResolver(store, nil)
	start := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)

	first, err := r.Resolve(context.Background(), sourceRecord(1, "m-1", "Arsenal", "Chelsea", start))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// The same source match id later reports a drifted kickoff. The
	// existing mapping must win; no second event, no repointing.
	again, err := r.Resolve(context.Background(), sourceRecord(1, "m-1", "Arsenal", "Chelsea", start.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("mapping repointed from %s to %s", first.ID, again.ID)
	}
	if len(store.events) != 1 {
		t.Errorf("store holds %d events, want 1", len(store.events))
	}
}

func TestAliasIndexReload(t *testing.T) {
	idx := NewAliasIndex([]domain.TeamAlias{{Canonical: "arsenal", Alias: "the gunners"}})

	if got := idx.Canonical("The Gunners"); got != "arsenal" {
		t.Errorf("Canonical(The Gunners) = %q, want arsenal", got)
	}
	// Unknown names fall back to their cleaned form.
	if got := idx.Canonical("Real Madrid CF"); got != "real madrid" {
		t.Errorf("Canonical(Real Madrid CF) = %q, want real madrid", got)
	}

	idx.replace([]domain.TeamAlias{{Canonical: "arsenal", Alias: "arsenal fc london"}})
	if got := idx.Canonical("The Gunners"); got != "the gunners" {
		t.Errorf("stale alias survived replace: %q", got)
	}
	if got := idx.Canonical("Arsenal FC London"); got != "arsenal" {
		t.Errorf("Canonical(Arsenal FC London) = %q, want arsenal", got)
	}
}
