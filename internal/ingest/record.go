package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// RawRecord is the wire shape collectors deliver: one observed market per
// record. It is deliberately loose; ParseRecord is the strict boundary.
type RawRecord struct {
	SourceID      int64              `json:"source_id"`
	SourceMatchID string             `json:"source_match_id"`
	Sport         string             `json:"sport"`
	Participants  []string           `json:"participants"`
	StartTime     string             `json:"start_time"`
	MarketLabel   string             `json:"market_label"`
	Line          string             `json:"line,omitempty"`
	Outcomes      map[string]float64 `json:"outcomes"`
}

// ParseRecord validates a raw collector payload and converts it into a
// typed domain.SourceRecord: required fields present, a timezone-aware
// kickoff, a known market, canonical outcome keys, and strictly positive
// prices. Every failure wraps domain.ErrInvalidRecord so callers can
// reject the single record and continue the batch.
func ParseRecord(raw RawRecord, observedAt time.Time) (domain.SourceRecord, error) {
	fail := func(format string, args ...any) (domain.SourceRecord, error) {
		return domain.SourceRecord{}, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidRecord}, args...)...)
	}

	if raw.SourceID <= 0 {
		return fail("source_id missing")
	}
	if strings.TrimSpace(raw.SourceMatchID) == "" {
		return fail("source_match_id missing")
	}
	sport := strings.TrimSpace(raw.Sport)
	if sport == "" {
		return fail("sport missing")
	}
	if len(raw.Participants) != 2 {
		return fail("expected 2 participants, got %d", len(raw.Participants))
	}
	home := strings.TrimSpace(raw.Participants[0])
	away := strings.TrimSpace(raw.Participants[1])
	if home == "" || away == "" {
		return fail("blank participant name")
	}

	start, err := parseStartTime(raw.StartTime)
	if err != nil {
		return fail("start_time %q: %v", raw.StartTime, err)
	}

	label, line, ok := NormalizeMarket(raw.MarketLabel, raw.Line)
	if !ok {
		return domain.SourceRecord{}, fmt.Errorf("%w: market %q: %w", domain.ErrInvalidRecord, raw.MarketLabel, domain.ErrUnknownMarket)
	}
	mt, _ := domain.MarketTypeFor(label)

	if len(raw.Outcomes) == 0 {
		return fail("no outcomes")
	}
	outcomes := make(map[string]float64, len(raw.Outcomes))
	for key, price := range raw.Outcomes {
		if price <= 0 {
			return fail("non-positive price %v for outcome %q", price, key)
		}
		canon := NormalizeOutcome(key)
		if !outcomeAllowed(mt, canon) {
			return fail("outcome %q not valid for market %s", key, label)
		}
		outcomes[canon] = price
	}

	return domain.SourceRecord{
		SourceID:      raw.SourceID,
		SourceEventID: strings.TrimSpace(raw.SourceMatchID),
		Sport:         strings.ToLower(sport),
		HomeTeam:      home,
		AwayTeam:      away,
		StartTime:     start.UTC(),
		MarketLabel:   label,
		Line:          line,
		Outcomes:      outcomes,
		ObservedAt:    observedAt.UTC(),
	}, nil
}

// parseStartTime accepts RFC 3339 kickoff times only. Offset-less strings
// are rejected: the contract requires timezone-aware input, and guessing a
// zone here would silently shift the aggregation window.
func parseStartTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("not a timezone-aware RFC 3339 timestamp")
	}
	return t, nil
}

func outcomeAllowed(mt domain.MarketType, outcome string) bool {
	for _, o := range mt.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// DecodeRecords parses a JSON array of raw records, the batch format the
// static fixture fetcher and the HTTP ingest surface both use.
func DecodeRecords(data []byte) ([]RawRecord, error) {
	var recs []RawRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("ingest: decode records: %w", err)
	}
	return recs, nil
}
