package domain

import "time"

// Source is a registered odds provider (bookmaker). Identity is immutable
// once registered; new observations never repoint an existing source.
type Source struct {
	ID        int64
	Name      string
	URL       string
	CreatedAt time.Time
}

// SourceRecord is one validated, normalized observation of a single market
// at a single source. It is the only shape in which collector output enters
// the core; raw payloads are converted at the ingestion boundary.
type SourceRecord struct {
	SourceID      int64
	SourceEventID string // the source's own match identifier
	Sport         string
	HomeTeam      string
	AwayTeam      string
	StartTime     time.Time // timezone-aware, normalized to UTC
	MarketLabel   string    // canonical label, see MarketTypeFor
	Line          string    // "" when the market has no line
	Outcomes      map[string]float64
	ObservedAt    time.Time
}
