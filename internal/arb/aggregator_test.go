package arb

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

func windowRow(fp, label, outcome string, sourceID int64, price float64) domain.WindowRow {
	return domain.WindowRow{
		EventID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(fp)),
		EventFingerprint: fp,
		Sport:            "soccer",
		HomeTeam:         "arsenal",
		AwayTeam:         "chelsea",
		StartTime:        time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC),
		MarketLabel:      label,
		Outcome:          outcome,
		SourceID:         sourceID,
		SourceName:       "book",
		Price:            price,
	}
}

func TestAggregatePicksBestPrice(t *testing.T) {
	rows := []domain.WindowRow{
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeHome, 1, 2.05),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeHome, 2, 2.11),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeAway, 1, 2.09),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeAway, 2, 1.95),
	}

	groups := Aggregate(rows)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	g := groups[0]
	if leg := g.Legs[domain.OutcomeHome]; leg.Price != 2.11 || leg.SourceID != 2 {
		t.Errorf("HOME leg = %+v, want price 2.11 from source 2", leg)
	}
	if leg := g.Legs[domain.OutcomeAway]; leg.Price != 2.09 || leg.SourceID != 1 {
		t.Errorf("AWAY leg = %+v, want price 2.09 from source 1", leg)
	}
}

func TestAggregatePriceTieBreaksOnLowestSource(t *testing.T) {
	rows := []domain.WindowRow{
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeHome, 7, 2.10),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeHome, 3, 2.10),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeAway, 3, 2.00),
	}

	groups := Aggregate(rows)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if leg := groups[0].Legs[domain.OutcomeHome]; leg.SourceID != 3 {
		t.Errorf("HOME leg source = %d, want tie broken to source 3", leg.SourceID)
	}
}

func TestAggregateRejectsIncompleteMarkets(t *testing.T) {
	rows := []domain.WindowRow{
		// Three-way market with only two priced outcomes.
		windowRow("ev1", domain.MarketThreeWay, domain.OutcomeHome, 1, 3.9),
		windowRow("ev1", domain.MarketThreeWay, domain.OutcomeDraw, 1, 4.1),
		// Unknown label never forms a candidate.
		windowRow("ev2", "FIRST_GOALSCORER", "SALAH", 1, 9.0),
	}

	if groups := Aggregate(rows); len(groups) != 0 {
		t.Errorf("got %d groups, want 0 (incomplete or unknown markets)", len(groups))
	}
}

func TestAggregateSeparatesByLine(t *testing.T) {
	over25 := windowRow("ev1", domain.MarketOverUnder, domain.OutcomeOver, 1, 2.15)
	over25.Line = "2.5"
	under25 := windowRow("ev1", domain.MarketOverUnder, domain.OutcomeUnder, 2, 2.05)
	under25.Line = "2.5"
	over35 := windowRow("ev1", domain.MarketOverUnder, domain.OutcomeOver, 1, 3.40)
	over35.Line = "3.5"
	under35 := windowRow("ev1", domain.MarketOverUnder, domain.OutcomeUnder, 2, 1.45)
	under35.Line = "3.5"

	groups := Aggregate([]domain.WindowRow{over25, under25, over35, under35})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 (one per line)", len(groups))
	}
	// Deterministic ordering by line within the same event and label.
	if groups[0].Line != "2.5" || groups[1].Line != "3.5" {
		t.Errorf("group lines = %q, %q, want 2.5 then 3.5", groups[0].Line, groups[1].Line)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	rows := []domain.WindowRow{
		windowRow("ev2", domain.MarketMatchWinner, domain.OutcomeHome, 1, 2.1),
		windowRow("ev2", domain.MarketMatchWinner, domain.OutcomeAway, 1, 2.1),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeHome, 1, 2.1),
		windowRow("ev1", domain.MarketMatchWinner, domain.OutcomeAway, 1, 2.1),
	}

	groups := Aggregate(rows)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].EventFingerprint != "ev1" || groups[1].EventFingerprint != "ev2" {
		t.Errorf("groups out of order: %s, %s", groups[0].EventFingerprint, groups[1].EventFingerprint)
	}
}
