package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

func validRaw() RawRecord {
	return RawRecord{
		SourceID:      1,
		SourceMatchID: "m-100",
		Sport:         "Soccer",
		Participants:  []string{"Arsenal FC", "Chelsea"},
		StartTime:     "2026-09-05T15:00:00Z",
		MarketLabel:   "Match Winner",
		Outcomes:      map[string]float64{"home": 2.11, "away": 2.09},
	}
}

func TestParseRecord(t *testing.T) {
	observed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	rec, err := ParseRecord(validRaw(), observed)
	if err != nil {
		t.Fatalf("ParseRecord() error: %v", err)
	}

	if rec.Sport != "soccer" {
		t.Errorf("Sport = %q, want lowercased soccer", rec.Sport)
	}
	if rec.MarketLabel != domain.MarketMatchWinner {
		t.Errorf("MarketLabel = %q, want %q", rec.MarketLabel, domain.MarketMatchWinner)
	}
	if rec.Outcomes[domain.OutcomeHome] != 2.11 || rec.Outcomes[domain.OutcomeAway] != 2.09 {
		t.Errorf("Outcomes = %v, want canonical HOME/AWAY keys", rec.Outcomes)
	}
	want := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)
	if !rec.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", rec.StartTime, want)
	}
	if !rec.ObservedAt.Equal(observed) {
		t.Errorf("ObservedAt = %v, want %v", rec.ObservedAt, observed)
	}
}

func TestParseRecordNormalizesOffset(t *testing.T) {
	raw := validRaw()
	raw.StartTime = "2026-09-05T17:00:00+02:00"

	rec, err := ParseRecord(raw, time.Now())
	if err != nil {
		t.Fatalf("ParseRecord() error: %v", err)
	}
	want := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)
	if !rec.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v (UTC)", rec.StartTime, want)
	}
}

func TestParseRecordRejections(t *testing.T) {
	observed := time.Now()

	cases := []struct {
		name   string
		mutate func(*RawRecord)
	}{
		{"missing source", func(r *RawRecord) { r.SourceID = 0 }},
		{"missing match id", func(r *RawRecord) { r.SourceMatchID = "  " }},
		{"missing sport", func(r *RawRecord) { r.Sport = "" }},
		{"one participant", func(r *RawRecord) { r.Participants = []string{"Arsenal"} }},
		{"blank participant", func(r *RawRecord) { r.Participants = []string{"Arsenal", " "} }},
		{"naive timestamp", func(r *RawRecord) { r.StartTime = "2026-09-05 15:00:00" }},
		{"no outcomes", func(r *RawRecord) { r.Outcomes = nil }},
		{"zero price", func(r *RawRecord) { r.Outcomes = map[string]float64{"home": 0, "away": 2.0} }},
		{"negative price", func(r *RawRecord) { r.Outcomes = map[string]float64{"home": -1.5, "away": 2.0} }},
		{"outcome not in market", func(r *RawRecord) { r.Outcomes = map[string]float64{"draw": 3.3, "away": 2.0} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.mutate(&raw)
			_, err := ParseRecord(raw, observed)
			if !errors.Is(err, domain.ErrInvalidRecord) {
				t.Errorf("ParseRecord() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestParseRecordUnknownMarket(t *testing.T) {
	raw := validRaw()
	raw.MarketLabel = "First Goalscorer"
	raw.Outcomes = map[string]float64{"salah": 9.0}

	_, err := ParseRecord(raw, time.Now())
	if !errors.Is(err, domain.ErrUnknownMarket) {
		t.Errorf("ParseRecord() error = %v, want ErrUnknownMarket", err)
	}
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("ParseRecord() error = %v, want ErrInvalidRecord too", err)
	}
}

func TestDecodeRecords(t *testing.T) {
	data := []byte(`[
		{"source_id": 1, "source_match_id": "m-1", "sport": "soccer",
		 "participants": ["Arsenal", "Chelsea"], "start_time": "2026-09-05T15:00:00Z",
		 "market_label": "1X2", "outcomes": {"1": 3.9, "x": 4.1, "2": 3.8}}
	]`)

	recs, err := DecodeRecords(data)
	if err != nil {
		t.Fatalf("DecodeRecords() error: %v", err)
	}
	if len(recs) != 1 || recs[0].SourceMatchID != "m-1" {
		t.Errorf("DecodeRecords() = %+v, want one record m-1", recs)
	}

	if _, err := DecodeRecords([]byte("{not json")); err == nil {
		t.Error("DecodeRecords() accepted malformed input")
	}
}
