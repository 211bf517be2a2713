package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/arb"
	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// windowOddsStore serves a fixed set of window rows.
type windowOddsStore struct {
	domain.OddsStore
	rows []domain.WindowRow
}

func (w *windowOddsStore) ReadWindow(context.Context, string, time.Time, time.Time, []string) ([]domain.WindowRow, error) {
	return w.rows, nil
}

// memOppStore records inserts and enforces the identity-key dedup of the
// real store.
type memOppStore struct {
	domain.OpportunityStore
	mu       sync.Mutex
	seen     map[string]bool
	inserted []domain.Opportunity
	failWith error
}

func newMemOppStore() *memOppStore {
	return &memOppStore{seen: make(map[string]bool)}
}

func (m *memOppStore) InsertIfNew(_ context.Context, opp domain.Opportunity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	key := fmt.Sprintf("%s|%s|%s|%s", opp.EventFingerprint, opp.MarketLabel, opp.Line, opp.LegsHash)
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	m.inserted = append(m.inserted, opp)
	return true, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Opportunity
}

func (r *recordingNotifier) NotifyOpportunity(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, opp)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func testRows() []domain.WindowRow {
	eventID := uuid.New()
	start := time.Now().UTC().Add(24 * time.Hour)
	row := func(outcome string, sourceID int64, price float64) domain.WindowRow {
		return domain.WindowRow{
			EventID:          eventID,
			EventFingerprint: "ev1",
			Sport:            "soccer",
			HomeTeam:         "arsenal",
			AwayTeam:         "chelsea",
			StartTime:        start,
			MarketLabel:      domain.MarketMatchWinner,
			Outcome:          outcome,
			SourceID:         sourceID,
			SourceName:       fmt.Sprintf("book%d", sourceID),
			Price:            price,
		}
	}
	return []domain.WindowRow{
		row(domain.OutcomeHome, 1, 2.11),
		row(domain.OutcomeAway, 2, 2.09),
	}
}

func newTestScanner(odds domain.OddsStore, opps domain.OpportunityStore, notifier Notifier) *Scanner {
	engine := arb.NewEngine(arb.EngineConfig{TotalStake: 1000, MinProfitPct: 1.0}, slog.Default())
	cfg := Config{
		Sports:   []string{"soccer"},
		Window:   48 * time.Hour,
		Interval: time.Second,
		AlertTTL: time.Minute,
	}
	return NewScanner(cfg, odds, opps, engine, nil, nil, nil, notifier, slog.Default())
}

func TestScannerDetectsAndForwardsOnce(t *testing.T) {
	opps := newMemOppStore()
	notifier := &recordingNotifier{}
	s := newTestScanner(&windowOddsStore{rows: testRows()}, opps, notifier)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if len(opps.inserted) != 1 {
		t.Fatalf("got %d inserted opportunities, want 1", len(opps.inserted))
	}
	if notifier.count() != 1 {
		t.Errorf("got %d notifications, want 1", notifier.count())
	}

	// Second pass over unchanged odds: same identity, nothing new, no
	// duplicate alert.
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if len(opps.inserted) != 1 {
		t.Errorf("got %d inserted opportunities after rescan, want 1", len(opps.inserted))
	}
	if notifier.count() != 1 {
		t.Errorf("got %d notifications after rescan, want 1", notifier.count())
	}
}

func TestScannerFailsClosedOnPersistError(t *testing.T) {
	opps := newMemOppStore()
	opps.failWith = errors.New("connection refused")
	notifier := &recordingNotifier{}
	s := newTestScanner(&windowOddsStore{rows: testRows()}, opps, notifier)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	// An opportunity that could not be persisted is never forwarded.
	if notifier.count() != 0 {
		t.Errorf("got %d notifications, want 0", notifier.count())
	}
}

func TestScannerPriceMoveCreatesNewOpportunity(t *testing.T) {
	odds := &windowOddsStore{rows: testRows()}
	opps := newMemOppStore()
	s := newTestScanner(odds, opps, nil)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// A price move changes the legs fingerprint, so the combination is a
	// distinct opportunity.
	odds.rows[0].Price = 2.15
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(opps.inserted) != 2 {
		t.Errorf("got %d inserted opportunities, want 2", len(opps.inserted))
	}
}

type fixedLock struct {
	err error
}

func (f *fixedLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	return func() {}, nil
}

func TestScannerSkipsPassWhenLockHeld(t *testing.T) {
	opps := newMemOppStore()
	s := newTestScanner(&windowOddsStore{rows: testRows()}, opps, nil)
	s.locks = &fixedLock{err: domain.ErrLockHeld}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(opps.inserted) != 0 {
		t.Errorf("pass ran despite held lock: %d inserts", len(opps.inserted))
	}
}
