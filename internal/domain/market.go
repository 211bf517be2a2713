package domain

import (
	"time"

	"github.com/google/uuid"
)

// Canonical outcome keys shared by all market types.
const (
	OutcomeHome       = "HOME"
	OutcomeDraw       = "DRAW"
	OutcomeAway       = "AWAY"
	OutcomeYes        = "YES"
	OutcomeNo         = "NO"
	OutcomeOver       = "OVER"
	OutcomeUnder      = "UNDER"
	OutcomeHomeOrDraw = "HOME_OR_DRAW"
	OutcomeHomeOrAway = "HOME_OR_AWAY"
	OutcomeDrawOrAway = "DRAW_OR_AWAY"
)

// Canonical market labels.
const (
	MarketThreeWay     = "1X2"
	MarketMatchWinner  = "MATCH_WINNER"
	MarketDrawNoBet    = "DRAW_NO_BET"
	MarketBTTS         = "BTTS"
	MarketDoubleChance = "DOUBLE_CHANCE"
	MarketOverUnder    = "OVER_UNDER"
	MarketHandicap     = "HANDICAP"
)

// MarketType describes the structure of a betting market: its canonical
// label, the full outcome set a priceable quote must cover, and whether the
// market carries a line parameter (totals, handicaps).
type MarketType struct {
	Label    string
	Outcomes []string
	HasLine  bool
}

var marketTypes = map[string]MarketType{
	MarketThreeWay:     {Label: MarketThreeWay, Outcomes: []string{OutcomeHome, OutcomeDraw, OutcomeAway}},
	MarketMatchWinner:  {Label: MarketMatchWinner, Outcomes: []string{OutcomeHome, OutcomeAway}},
	MarketDrawNoBet:    {Label: MarketDrawNoBet, Outcomes: []string{OutcomeHome, OutcomeAway}},
	MarketBTTS:         {Label: MarketBTTS, Outcomes: []string{OutcomeYes, OutcomeNo}},
	MarketDoubleChance: {Label: MarketDoubleChance, Outcomes: []string{OutcomeHomeOrDraw, OutcomeHomeOrAway, OutcomeDrawOrAway}},
	MarketOverUnder:    {Label: MarketOverUnder, Outcomes: []string{OutcomeOver, OutcomeUnder}, HasLine: true},
	MarketHandicap:     {Label: MarketHandicap, Outcomes: []string{OutcomeHome, OutcomeAway}, HasLine: true},
}

// MarketTypeFor returns the market type for a canonical label.
func MarketTypeFor(label string) (MarketType, bool) {
	mt, ok := marketTypes[label]
	return mt, ok
}

// Market identifies a betting market on a canonical event. Unique per
// (event, label, line).
type Market struct {
	ID      int64
	EventID uuid.UUID
	Label   string
	Line    string
}

// WindowRow is one fully denormalized latest-odds row returned by the
// window reader: everything the aggregator needs without further lookups.
type WindowRow struct {
	EventID          uuid.UUID `json:"event_id"`
	EventFingerprint string    `json:"event_fingerprint"`
	Sport            string    `json:"sport"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	StartTime        time.Time `json:"start_time"`
	MarketID         int64     `json:"market_id"`
	MarketLabel      string    `json:"market_label"`
	Line             string    `json:"line,omitempty"`
	SourceID         int64     `json:"source_id"`
	SourceName       string    `json:"source_name"`
	Outcome          string    `json:"outcome"`
	Price            float64   `json:"price"`
	ObservedAt       time.Time `json:"observed_at"`
}

// OddsHistoryRow is one immutable observation from the append-only log.
type OddsHistoryRow struct {
	ID         int64
	MarketID   int64
	SourceID   int64
	Outcome    string
	Price      float64
	ObservedAt time.Time
}
