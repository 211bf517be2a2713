package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// fakeOddsStore is an in-memory OddsStore that mirrors the latest+history
// write semantics of the postgres implementation.
type fakeOddsStore struct {
	mu      sync.Mutex
	nextID  int64
	markets map[string]int64              // "eventID|label|line"
	latest  map[string]float64            // "marketID|sourceID|outcome"
	history map[int64][]domain.OddsHistoryRow
}

func newFakeOddsStore() *fakeOddsStore {
	return &fakeOddsStore{
		markets: make(map[string]int64),
		latest:  make(map[string]float64),
		history: make(map[int64][]domain.OddsHistoryRow),
	}
}

func (f *fakeOddsStore) UpsertMarket(_ context.Context, eventID uuid.UUID, label, line string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", eventID, label, line)
	if id, ok := f.markets[key]; ok {
		return id, nil
	}
	f.nextID++
	f.markets[key] = f.nextID
	return f.nextID, nil
}

func (f *fakeOddsStore) Record(_ context.Context, marketID, sourceID int64, outcome string, price float64, observedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[fmt.Sprintf("%d|%d|%s", marketID, sourceID, outcome)] = price
	f.history[marketID] = append(f.history[marketID], domain.OddsHistoryRow{
		MarketID:   marketID,
		SourceID:   sourceID,
		Outcome:    outcome,
		Price:      price,
		ObservedAt: observedAt,
	})
	return nil
}

func (f *fakeOddsStore) ReadWindow(context.Context, string, time.Time, time.Time, []string) ([]domain.WindowRow, error) {
	return nil, nil
}

func (f *fakeOddsStore) HistoryLen(_ context.Context, marketID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.history[marketID])), nil
}

func (f *fakeOddsStore) ListHistoryBefore(context.Context, time.Time, int) ([]domain.OddsHistoryRow, error) {
	return nil, nil
}

func (f *fakeOddsStore) DeleteHistoryBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var _ domain.OddsStore = (*fakeOddsStore)(nil)

func newTestIngestor(events *fakeEventStore, odds *fakeOddsStore) *Ingestor {
	resolver := newTestResolver(events, nil)
	return NewIngestor(resolver, odds, slog.Default())
}

func TestIngestIdempotentIdentityAppendOnlyHistory(t *testing.T) {
	events := newFakeEventStore()
	odds := newFakeOddsStore()
	ing := newTestIngestor(events, odds)

	start := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)
	rec := sourceRecord(1, "m-1", "Arsenal", "Chelsea", start)

	const n = 3
	for range n {
		if err := ing.Ingest(context.Background(), rec); err != nil {
			t.Fatalf("Ingest() error: %v", err)
		}
	}

	if len(events.events) != 1 {
		t.Errorf("got %d canonical events, want 1", len(events.events))
	}
	if len(odds.markets) != 1 {
		t.Errorf("got %d markets, want 1", len(odds.markets))
	}
	// One latest row per (source, outcome), history grows every pass.
	if len(odds.latest) != 2 {
		t.Errorf("got %d latest rows, want 2", len(odds.latest))
	}
	hlen, _ := odds.HistoryLen(context.Background(), 1)
	if hlen != n*2 {
		t.Errorf("history length = %d, want %d", hlen, n*2)
	}
}

func TestIngestBatchSkipsBadRecords(t *testing.T) {
	events := newFakeEventStore()
	odds := newFakeOddsStore()
	ing := newTestIngestor(events, odds)

	raws := []RawRecord{
		{
			SourceID:      1,
			SourceMatchID: "m-1",
			Sport:         "soccer",
			Participants:  []string{"Arsenal", "Chelsea"},
			StartTime:     "2026-09-05T15:00:00Z",
			MarketLabel:   "Match Winner",
			Outcomes:      map[string]float64{"home": 2.11, "away": 2.09},
		},
		{
			// Unknown market: rejected at the parse boundary.
			SourceID:      1,
			SourceMatchID: "m-2",
			Sport:         "soccer",
			Participants:  []string{"Liverpool", "Everton"},
			StartTime:     "2026-09-05T17:30:00Z",
			MarketLabel:   "First Goalscorer",
			Outcomes:      map[string]float64{"salah": 9.0},
		},
		{
			// Naive timestamp: rejected.
			SourceID:      1,
			SourceMatchID: "m-3",
			Sport:         "soccer",
			Participants:  []string{"Spurs", "West Ham"},
			StartTime:     "2026-09-05 20:00:00",
			MarketLabel:   "1X2",
			Outcomes:      map[string]float64{"1": 2.5, "x": 3.3, "2": 2.9},
		},
	}

	if got := ing.IngestBatch(context.Background(), raws); got != 1 {
		t.Errorf("IngestBatch() = %d, want 1", got)
	}
	if len(events.events) != 1 {
		t.Errorf("got %d canonical events, want 1", len(events.events))
	}
}
