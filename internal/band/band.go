package band

import (
	"sort"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region table

// HighConfidence is the confidence at which a hit counts as high-confidence.
const HighConfidence = 0.65

type entry struct {
	label string
	band  decision.Band
}

// table is the authoritative code → band mapping. It is never written after init.
var table = map[int]entry{
	101: {"procrastination_loop", decision.B1},
	102: {"perfectionism", decision.B1},
	103: {"overplanning", decision.B1},
	201: {"people_pleasing", decision.B2},
	202: {"self_criticism", decision.B2},
	203: {"comparison_spiral", decision.B2},
	301: {"self_silencing", decision.B3},
	302: {"freeze_collapse", decision.B3},
	303: {"dissociative_drift", decision.B3},
	401: {"anger_heat", decision.B4},
	402: {"resentment_loop", decision.B4},
	501: {"rehearsal_loop", decision.B5},
	502: {"catastrophic_anticipation", decision.B5},
}

// Lookup returns the band of a code. Unknown codes map to BandUnknown.
func Lookup(code int) (decision.Band, bool) {
	e, ok := table[code]
	if !ok {
		return decision.BandUnknown, false
	}
	return e.band, true
}

// Label returns the label of a code, or "" when unknown.
func Label(code int) string {
	return table[code].label
}

// Codes returns every catalogued code in ascending order.
func Codes() []int {
	out := make([]int, 0, len(table))
	for c := range table {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// #endregion table

// #region resolve

// precedence orders bands after B3, which always dominates.
var precedence = []decision.Band{decision.B3, decision.B2, decision.B4, decision.B5, decision.B1}

// Dominant reduces hits to one band with safety-first precedence:
// any B3 → B3, then B2 > B4 > B5 > B1. No hits → UNKNOWN.
func Dominant(hits []decision.CodeHit) decision.Band {
	for _, b := range precedence {
		if Has(hits, b) {
			return b
		}
	}
	return decision.BandUnknown
}

// Has reports whether any hit carries one of the given bands.
func Has(hits []decision.CodeHit, bands ...decision.Band) bool {
	for _, h := range hits {
		for _, b := range bands {
			if h.Band == b {
				return true
			}
		}
	}
	return false
}

// HasTableBand reports whether any hit's code is catalogued under b,
// regardless of any state-driven downgrade applied to the hit.
func HasTableBand(hits []decision.CodeHit, b decision.Band) bool {
	for _, h := range hits {
		if tb, ok := Lookup(h.Code); ok && tb == b {
			return true
		}
	}
	return false
}

// All reports whether every hit carries band b. False for no hits.
func All(hits []decision.CodeHit, b decision.Band) bool {
	if len(hits) == 0 {
		return false
	}
	for _, h := range hits {
		if h.Band != b {
			return false
		}
	}
	return true
}

// MaxConfidence returns the highest confidence among hits carrying one of bands.
func MaxConfidence(hits []decision.CodeHit, bands ...decision.Band) float64 {
	var best float64
	for _, h := range hits {
		for _, b := range bands {
			if h.Band == b && h.Confidence > best {
				best = h.Confidence
			}
		}
	}
	return best
}

// #endregion resolve
