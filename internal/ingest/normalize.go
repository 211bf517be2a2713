// Package ingest converts raw collector payloads into typed records,
// resolves them to canonical event identities, and writes odds into the
// store. It is the only entry point through which source data reaches the
// core.
package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// outcomeAliases maps the spellings bookmakers use for outcome keys to the
// canonical outcome constants.
var outcomeAliases = map[string]string{
	"1":     domain.OutcomeHome,
	"home":  domain.OutcomeHome,
	"team1": domain.OutcomeHome,
	"w1":    domain.OutcomeHome,

	"2":     domain.OutcomeAway,
	"away":  domain.OutcomeAway,
	"team2": domain.OutcomeAway,
	"w2":    domain.OutcomeAway,

	"x":    domain.OutcomeDraw,
	"d":    domain.OutcomeDraw,
	"draw": domain.OutcomeDraw,

	"yes": domain.OutcomeYes,
	"y":   domain.OutcomeYes,
	"no":  domain.OutcomeNo,
	"n":   domain.OutcomeNo,

	"over":  domain.OutcomeOver,
	"o":     domain.OutcomeOver,
	"under": domain.OutcomeUnder,
	"u":     domain.OutcomeUnder,

	"1x": domain.OutcomeHomeOrDraw,
	"12": domain.OutcomeHomeOrAway,
	"x2": domain.OutcomeDrawOrAway,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeOutcome maps a source-reported outcome key to its canonical
// form. Unknown keys are uppercased and passed through; validation against
// the market's outcome set happens later.
func NormalizeOutcome(raw string) string {
	key := nonAlnum.ReplaceAllString(strings.ToLower(raw), "")
	if canon, ok := outcomeAliases[key]; ok {
		return canon
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

var (
	threeWayLabels = map[string]bool{
		"1x2": true, "full time result": true, "result": true,
		"ft result": true, "match odds": true, "home/draw/away": true,
	}
	matchWinnerLabels = map[string]bool{
		"match winner": true, "moneyline": true, "to win": true, "winner": true,
	}
	drawNoBetLabels = map[string]bool{
		"dnb": true, "draw no bet": true, "ah(0)": true,
		"asian handicap 0": true, "handicap 0": true,
	}
	bttsLabels = map[string]bool{
		"btts": true, "both teams to score": true, "gg/ng": true,
		"gg-ng": true, "goal goal": true, "btts yes/no": true,
	}
	doubleChanceLabels = map[string]bool{"double chance": true}
)

var (
	handicapRe  = regexp.MustCompile(`(?:ahc|handicap|asian)[^\d+-]*([+-]?\d+(?:\.\d+)?)`)
	overUnderRe = regexp.MustCompile(`\b(?:o|over|u|under|totals?|over/under)[^\d]*(\d+(?:\.\d+)?)`)
)

// NormalizeMarket maps a source-reported market name, plus an optional
// explicit line, to a canonical (label, line) pair. It returns
// domain.ErrUnknownMarket wrapped as ok=false when no canonical market
// matches; unknown markets are skipped at the boundary rather than stored
// under ad-hoc labels.
func NormalizeMarket(raw, line string) (label, normLine string, ok bool) {
	m := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case threeWayLabels[m], m == domain.MarketThreeWay:
		return domain.MarketThreeWay, "", true
	case matchWinnerLabels[m], strings.EqualFold(m, domain.MarketMatchWinner):
		return domain.MarketMatchWinner, "", true
	case drawNoBetLabels[m], strings.EqualFold(m, domain.MarketDrawNoBet):
		return domain.MarketDrawNoBet, "", true
	case bttsLabels[m]:
		return domain.MarketBTTS, "", true
	case doubleChanceLabels[m], strings.EqualFold(m, domain.MarketDoubleChance):
		return domain.MarketDoubleChance, "", true
	}

	if l, lok := pickLine(line, handicapRe, m); lok && (strings.Contains(m, "handicap") || strings.Contains(m, "ahc") || strings.Contains(m, "asian") || strings.EqualFold(m, strings.ToLower(domain.MarketHandicap))) {
		return domain.MarketHandicap, l, true
	}
	if l, lok := pickLine(line, overUnderRe, m); lok && (strings.Contains(m, "over") || strings.Contains(m, "under") || strings.Contains(m, "total") || strings.HasPrefix(m, "o") || strings.HasPrefix(m, "u") || strings.EqualFold(m, strings.ToLower(domain.MarketOverUnder))) {
		return domain.MarketOverUnder, l, true
	}

	return "", "", false
}

// pickLine prefers an explicitly supplied line over one embedded in the
// market name, and renders it in a canonical decimal form so "2.50" and
// "2.5" group together.
func pickLine(explicit string, re *regexp.Regexp, market string) (string, bool) {
	raw := strings.TrimSpace(explicit)
	if raw == "" {
		sub := re.FindStringSubmatch(market)
		if len(sub) < 2 {
			return "", false
		}
		raw = sub[1]
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// ParsePrice converts a source-reported price into decimal odds. Accepts
// plain decimals and fractional odds like "2/1".
func ParsePrice(raw string) (float64, bool) {
	val := strings.TrimSpace(raw)
	if num, den, found := strings.Cut(val, "/"); found {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n/d + 1, true
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var (
	teamSuffixRe = regexp.MustCompile(`\s+(fc|cf|sc|afc|cfc)$`)
	spacesRe     = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[^a-z0-9\s]`)
)

// CleanTeamName strips punctuation, common club suffixes, and extra
// whitespace, and lowercases the result. It is the lookup key form for the
// alias table.
func CleanTeamName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = punctRe.ReplaceAllString(n, "")
	n = teamSuffixRe.ReplaceAllString(n, "")
	return strings.TrimSpace(spacesRe.ReplaceAllString(n, " "))
}
