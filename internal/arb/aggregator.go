package arb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// Group is one (event, market label, line) candidate assembled from window
// rows, with the single best-priced leg per outcome.
type Group struct {
	EventID          uuid.UUID
	EventFingerprint string
	Sport            string
	HomeTeam         string
	AwayTeam         string
	MarketLabel      string
	Line             string
	StartTime        time.Time
	Legs             map[string]domain.Leg // outcome -> best leg
}

// Aggregate groups window rows by (event, market label, line) and selects
// the best price per outcome across sources. The maximum price wins; an
// exact price tie is broken by the lowest source id so the selection is
// stable and reproducible across runs. Groups missing any required outcome
// of their market type are rejected: a partial market can never produce a
// real opportunity.
//
// The returned groups are ordered by (event fingerprint, label, line) so
// downstream processing is deterministic regardless of row order.
func Aggregate(rows []domain.WindowRow) []Group {
	type key struct {
		fingerprint string
		label       string
		line        string
	}

	byKey := make(map[key]*Group)
	for _, row := range rows {
		k := key{row.EventFingerprint, row.MarketLabel, row.Line}
		g, ok := byKey[k]
		if !ok {
			g = &Group{
				EventID:          row.EventID,
				EventFingerprint: row.EventFingerprint,
				Sport:            row.Sport,
				HomeTeam:         row.HomeTeam,
				AwayTeam:         row.AwayTeam,
				MarketLabel:      row.MarketLabel,
				Line:             row.Line,
				StartTime:        row.StartTime,
				Legs:             make(map[string]domain.Leg),
			}
			byKey[k] = g
		}

		leg := domain.Leg{
			Outcome:    row.Outcome,
			SourceID:   row.SourceID,
			SourceName: row.SourceName,
			Price:      row.Price,
		}
		best, exists := g.Legs[row.Outcome]
		if !exists || betterLeg(leg, best) {
			g.Legs[row.Outcome] = leg
		}
	}

	groups := make([]Group, 0, len(byKey))
	for _, g := range byKey {
		if complete(*g) {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].EventFingerprint != groups[j].EventFingerprint {
			return groups[i].EventFingerprint < groups[j].EventFingerprint
		}
		if groups[i].MarketLabel != groups[j].MarketLabel {
			return groups[i].MarketLabel < groups[j].MarketLabel
		}
		return groups[i].Line < groups[j].Line
	})
	return groups
}

// betterLeg reports whether a should replace b as the best leg for an
// outcome: strictly higher price, or the same price from a lower source id.
func betterLeg(a, b domain.Leg) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.SourceID < b.SourceID
}

// complete reports whether the group has a price for every required
// outcome of its market type. Unknown labels never form candidates.
func complete(g Group) bool {
	mt, ok := domain.MarketTypeFor(g.MarketLabel)
	if !ok {
		return false
	}
	for _, outcome := range mt.Outcomes {
		if _, present := g.Legs[outcome]; !present {
			return false
		}
	}
	return true
}
