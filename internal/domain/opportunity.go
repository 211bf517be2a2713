package domain

import (
	"time"

	"github.com/google/uuid"
)

// Leg is one outcome-price pair contributing to an arbitrage combination,
// together with the source quoting that price.
type Leg struct {
	Outcome    string  `json:"outcome"`
	SourceID   int64   `json:"source_id"`
	SourceName string  `json:"source_name,omitempty"`
	Price      float64 `json:"price"`
}

// Opportunity is a detected arbitrage instance. Rows are created once per
// distinct leg combination and never updated: they record a point-in-time
// detection. Identity is (event fingerprint, market label, line, legs hash).
type Opportunity struct {
	ID               uuid.UUID          `json:"id"`
	EventID          uuid.UUID          `json:"canonical_event_id"`
	EventFingerprint string             `json:"event_fingerprint"`
	Sport            string             `json:"sport"`
	HomeTeam         string             `json:"home_team"`
	AwayTeam         string             `json:"away_team"`
	MarketLabel      string             `json:"market_label"`
	Line             string             `json:"line,omitempty"`
	StartTime        time.Time          `json:"start_time"`
	Legs             []Leg              `json:"legs"`
	Stakes           map[string]float64 `json:"stakes,omitempty"`
	Margin           float64            `json:"margin"`
	Profit           float64            `json:"profit"`
	ProfitPct        float64            `json:"profit_pct"`
	ROI              float64            `json:"roi"`
	LegsHash         string             `json:"legs_fingerprint"`
	DetectedAt       time.Time          `json:"detected_at"`
}
