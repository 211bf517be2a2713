package arb

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// EngineConfig holds the detection thresholds.
type EngineConfig struct {
	// TotalStake is the notional bankroll split across the legs.
	TotalStake float64
	// MinProfitPct filters out opportunities below this percentage edge.
	MinProfitPct float64
	// MinProfitAbs filters out opportunities below this absolute profit.
	MinProfitAbs float64
}

// Engine turns aggregated market groups into priced opportunities.
type Engine struct {
	cfg    EngineConfig
	logger *slog.Logger
}

func NewEngine(cfg EngineConfig, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "arb_engine")),
	}
}

// Detect evaluates every group and returns those that clear the thresholds,
// ordered by ROI descending with earlier kickoffs breaking ties.
func (e *Engine) Detect(groups []Group, now time.Time) []domain.Opportunity {
	opps := make([]domain.Opportunity, 0, len(groups))
	for _, g := range groups {
		opp, ok := e.evaluate(g, now)
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ROI != opps[j].ROI {
			return opps[i].ROI > opps[j].ROI
		}
		return opps[i].StartTime.Before(opps[j].StartTime)
	})
	return opps
}

func (e *Engine) evaluate(g Group, now time.Time) (domain.Opportunity, bool) {
	mt, ok := domain.MarketTypeFor(g.MarketLabel)
	if !ok {
		return domain.Opportunity{}, false
	}

	// Legs follow the market's canonical outcome order so that output is
	// deterministic regardless of map iteration.
	legs := make([]domain.Leg, 0, len(mt.Outcomes))
	prices := make(map[string]float64, len(mt.Outcomes))
	for _, outcome := range mt.Outcomes {
		leg, ok := g.Legs[outcome]
		if !ok {
			return domain.Opportunity{}, false
		}
		legs = append(legs, leg)
		prices[outcome] = leg.Price
	}

	bd, ok := Evaluate(prices, e.cfg.TotalStake)
	if !ok {
		return domain.Opportunity{}, false
	}
	if bd.ProfitPct < e.cfg.MinProfitPct || bd.Profit < e.cfg.MinProfitAbs {
		return domain.Opportunity{}, false
	}

	opp := domain.Opportunity{
		ID:               uuid.New(),
		EventID:          g.EventID,
		EventFingerprint: g.EventFingerprint,
		Sport:            g.Sport,
		HomeTeam:         g.HomeTeam,
		AwayTeam:         g.AwayTeam,
		MarketLabel:      g.MarketLabel,
		Line:             g.Line,
		StartTime:        g.StartTime,
		Legs:             legs,
		Stakes:           bd.Stakes,
		Margin:           bd.Margin,
		Profit:           bd.Profit,
		ProfitPct:        bd.ProfitPct,
		ROI:              bd.ROI,
		LegsHash:         LegsFingerprint(legs),
		DetectedAt:       now.UTC(),
	}

	e.logger.Debug("opportunity detected",
		slog.String("event", g.EventFingerprint),
		slog.String("market", g.MarketLabel),
		slog.Float64("profit_pct", bd.ProfitPct))

	return opp, true
}
