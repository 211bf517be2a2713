package ingest

import (
	"testing"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

func TestNormalizeOutcome(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", domain.OutcomeHome},
		{"Home", domain.OutcomeHome},
		{"W1", domain.OutcomeHome},
		{"2", domain.OutcomeAway},
		{"team2", domain.OutcomeAway},
		{"X", domain.OutcomeDraw},
		{"Draw", domain.OutcomeDraw},
		{"Yes", domain.OutcomeYes},
		{"N", domain.OutcomeNo},
		{"Over", domain.OutcomeOver},
		{"u", domain.OutcomeUnder},
		{"1X", domain.OutcomeHomeOrDraw},
		{"12", domain.OutcomeHomeOrAway},
		{"X2", domain.OutcomeDrawOrAway},
		{"salah", "SALAH"}, // unknown keys pass through uppercased
	}
	for _, tc := range cases {
		if got := NormalizeOutcome(tc.in); got != tc.want {
			t.Errorf("NormalizeOutcome(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeMarket(t *testing.T) {
	cases := []struct {
		raw      string
		line     string
		label    string
		normLine string
		ok       bool
	}{
		{"1X2", "", domain.MarketThreeWay, "", true},
		{"Full Time Result", "", domain.MarketThreeWay, "", true},
		{"Match Winner", "", domain.MarketMatchWinner, "", true},
		{"Moneyline", "", domain.MarketMatchWinner, "", true},
		{"Draw No Bet", "", domain.MarketDrawNoBet, "", true},
		{"Both Teams To Score", "", domain.MarketBTTS, "", true},
		{"Double Chance", "", domain.MarketDoubleChance, "", true},
		{"Over/Under 2.5", "", domain.MarketOverUnder, "2.5", true},
		{"Totals", "2.50", domain.MarketOverUnder, "2.5", true}, // explicit line, canonical form
		{"Asian Handicap -1.5", "", domain.MarketHandicap, "-1.5", true},
		{"Handicap", "+0.5", domain.MarketHandicap, "0.5", true},
		{"First Goalscorer", "", "", "", false},
	}
	for _, tc := range cases {
		label, line, ok := NormalizeMarket(tc.raw, tc.line)
		if ok != tc.ok || label != tc.label || line != tc.normLine {
			t.Errorf("NormalizeMarket(%q, %q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.raw, tc.line, label, line, ok, tc.label, tc.normLine, tc.ok)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2.11", 2.11, true},
		{" 1.95 ", 1.95, true},
		{"2/1", 3.0, true}, // fractional odds
		{"5/2", 3.5, true},
		{"1/0", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParsePrice(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCleanTeamName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Arsenal FC", "arsenal"},
		{"  Manchester   United ", "manchester united"},
		{"St. Pauli", "st pauli"},
		{"Brighton & Hove Albion", "brighton hove albion"},
		{"Chelsea CF", "chelsea"},
	}
	for _, tc := range cases {
		if got := CleanTeamName(tc.in); got != tc.want {
			t.Errorf("CleanTeamName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
