package arb

import (
	"math"
)

// Breakdown is the numeric result of evaluating one leg combination.
// Monetary fields are rounded to currency precision exactly once, here;
// ratios (Margin, ROI) are left at full precision.
type Breakdown struct {
	Margin    float64            // S = sum of implied probabilities
	Profit    float64            // guaranteed profit for TotalStake, rounded
	ProfitPct float64            // (1-S)/S * 100
	ROI       float64            // Profit / TotalStake before rounding: (1-S)/S
	Stakes    map[string]float64 // outcome -> rounded stake, sum <= TotalStake
	Payout    float64            // equalized payout TotalStake/S, rounded
}

// currencyDecimals is the fixed precision for all monetary output.
const currencyDecimals = 2

// Evaluate computes the arbitrage breakdown for outcome prices and a total
// stake. It returns ok=false when any price is non-positive (invalid
// input, skip the group rather than divide by it) or when the implied
// probabilities sum to one or more (no arbitrage).
//
// Stakes are allocated as T*(1/price)/S, which equalizes every leg's
// payout at T/S. Each stake is rounded half-even to currency precision;
// if the rounded stakes overshoot T the excess cents are shaved off the
// largest stake, so the sum never exceeds the configured total.
func Evaluate(prices map[string]float64, totalStake float64) (Breakdown, bool) {
	if len(prices) == 0 {
		return Breakdown{}, false
	}

	margin := 0.0
	for _, price := range prices {
		if price <= 0 {
			return Breakdown{}, false
		}
		margin += 1 / price
	}
	if margin >= 1 {
		return Breakdown{Margin: margin}, false
	}

	roi := (1 - margin) / margin

	stakes := make(map[string]float64, len(prices))
	sumCents := int64(0)
	largest := ""
	for outcome, price := range prices {
		stake := roundHalfEven(totalStake*(1/price)/margin, currencyDecimals)
		stakes[outcome] = stake
		sumCents += toCents(stake)
		if largest == "" || stake > stakes[largest] {
			largest = outcome
		}
	}
	if excess := sumCents - toCents(totalStake); excess > 0 {
		stakes[largest] = fromCents(toCents(stakes[largest]) - excess)
	}

	return Breakdown{
		Margin:    margin,
		Profit:    roundHalfEven(totalStake/margin-totalStake, currencyDecimals),
		ProfitPct: roi * 100,
		ROI:       roi,
		Stakes:    stakes,
		Payout:    roundHalfEven(totalStake/margin, currencyDecimals),
	}, true
}

// roundHalfEven rounds to the given number of decimal places using
// banker's rounding, the single rounding rule applied to every monetary
// value in this package.
func roundHalfEven(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.RoundToEven(v*scale) / scale
}

func toCents(v float64) int64 {
	return int64(math.RoundToEven(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}
