package arb

import (
	"testing"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

func TestLegsFingerprintOrderIndependent(t *testing.T) {
	legs := []domain.Leg{
		{Outcome: "HOME", SourceID: 1, Price: 2.11},
		{Outcome: "AWAY", SourceID: 2, Price: 2.09},
	}
	reversed := []domain.Leg{legs[1], legs[0]}

	a := LegsFingerprint(legs)
	b := LegsFingerprint(reversed)
	if a != b {
		t.Errorf("fingerprint depends on leg order: %s != %s", a, b)
	}
	if len(a) != 40 {
		t.Errorf("fingerprint length = %d, want 40", len(a))
	}
}

func TestLegsFingerprintAbsorbsPriceJitter(t *testing.T) {
	base := []domain.Leg{
		{Outcome: "HOME", SourceID: 1, Price: 2.11},
		{Outcome: "AWAY", SourceID: 2, Price: 2.09},
	}
	jittered := []domain.Leg{
		{Outcome: "HOME", SourceID: 1, Price: 2.1100000001},
		{Outcome: "AWAY", SourceID: 2, Price: 2.0899999999},
	}
	if LegsFingerprint(base) != LegsFingerprint(jittered) {
		t.Error("sub-precision price jitter changed the fingerprint")
	}
}

func TestLegsFingerprintDistinguishes(t *testing.T) {
	base := []domain.Leg{
		{Outcome: "HOME", SourceID: 1, Price: 2.11},
		{Outcome: "AWAY", SourceID: 2, Price: 2.09},
	}

	diffPrice := []domain.Leg{
		{Outcome: "HOME", SourceID: 1, Price: 2.12},
		{Outcome: "AWAY", SourceID: 2, Price: 2.09},
	}
	if LegsFingerprint(base) == LegsFingerprint(diffPrice) {
		t.Error("price change beyond precision did not change the fingerprint")
	}

	diffSource := []domain.Leg{
		{Outcome: "HOME", SourceID: 3, Price: 2.11},
		{Outcome: "AWAY", SourceID: 2, Price: 2.09},
	}
	if LegsFingerprint(base) == LegsFingerprint(diffSource) {
		t.Error("source change did not change the fingerprint")
	}
}
