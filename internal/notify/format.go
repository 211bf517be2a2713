package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// FormatOpportunity renders an opportunity as a human-readable alert body.
// Channels apply their own bold/markdown to the title; the body stays plain
// so it survives every channel's escaping rules.
func FormatOpportunity(opp domain.Opportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage %.2f%%: %s vs %s", opp.ProfitPct, opp.HomeTeam, opp.AwayTeam)

	var b strings.Builder
	market := opp.MarketLabel
	if opp.Line != "" {
		market += " " + opp.Line
	}
	fmt.Fprintf(&b, "%s | %s\n", opp.Sport, market)
	fmt.Fprintf(&b, "Kickoff: %s\n", opp.StartTime.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Margin: %.4f  Profit: %.2f (%.2f%%)\n", opp.Margin, opp.Profit, opp.ProfitPct)

	for _, leg := range opp.Legs {
		src := leg.SourceName
		if src == "" {
			src = fmt.Sprintf("source %d", leg.SourceID)
		}
		fmt.Fprintf(&b, "  %s @ %.2f (%s)", leg.Outcome, leg.Price, src)
		if stake, ok := opp.Stakes[leg.Outcome]; ok {
			fmt.Fprintf(&b, " stake %.2f", stake)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Detected: %s", opp.DetectedAt.UTC().Format(time.RFC3339))
	return title, b.String()
}
