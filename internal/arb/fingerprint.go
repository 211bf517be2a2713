// Package arb detects arbitrage opportunities from windowed latest-odds
// rows: grouping, best-price selection, margin and stake arithmetic, and
// the order-independent leg fingerprints used for de-duplication.
package arb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// priceDecimals is the precision prices are rounded to before hashing.
// Rounding here absorbs floating-point jitter between otherwise identical
// observations so they produce the same fingerprint.
const priceDecimals = 2

// LegsFingerprint derives the order-independent digest identifying a leg
// combination. Legs are sorted by outcome before hashing, so any
// enumeration order of the same combination yields the same digest.
func LegsFingerprint(legs []domain.Leg) string {
	parts := make([]string, len(legs))
	for i, leg := range legs {
		parts[i] = fmt.Sprintf("%s|%d|%.*f", leg.Outcome, leg.SourceID, priceDecimals, roundHalfEven(leg.Price, priceDecimals))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])[:40]
}
