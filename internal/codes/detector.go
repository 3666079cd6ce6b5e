package codes

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

// #region config

// Config holds thresholds for candidate survival, cross-turn decay and reduction.
type Config struct {
	Threshold          float64 // stage-1 survival score
	Decay              float64 // geometric decay per turn back
	MinWeight          float64 // decayed contributions below this are dropped
	CarryShare         float64 // share of decayed weight added to an existing candidate
	Lookback           int     // prior user turns aggregated
	MaxHits            int
	Affinity           float64 // state affinity bonus/penalty
	ActivatedB5Penalty float64
	B1DropBelow        float64 // B1 candidates under this are dropped when B2/B3 is present
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:          0.55,
		Decay:              0.82,
		MinWeight:          0.15,
		CarryShare:         0.35,
		Lookback:           5,
		MaxHits:            3,
		Affinity:           0.05,
		ActivatedB5Penalty: 0.08,
		B1DropBelow:        0.85,
	}
}

// #endregion config

// #region detector

// Detector runs the catalog over a turn and its recent history.
type Detector struct {
	extractor signals.Extractor
	config    Config
}

// NewDetector creates a Detector over the given signal extractor.
func NewDetector(extractor signals.Extractor, config Config) *Detector {
	return &Detector{extractor: extractor, config: config}
}

// Detect returns at most MaxHits codes for text. users holds the prior user
// turns oldest first; timeline holds the inferred states of the most recent
// of them, aligned to the end of users.
func (d *Detector) Detect(text string, st decision.State, users []string, timeline []decision.State) []decision.CodeHit {
	candidates := d.Stage1(d.extractor.Extract(text, users), st.Arousal)
	candidates = d.aggregate(candidates, users, timeline)
	candidates = d.reduce(candidates, st.Arousal)
	return d.selectTop(candidates)
}

// Stage1 scores every rule and keeps candidates at or above Threshold.
func (d *Detector) Stage1(set signals.Set, arousal decision.ArousalState) []decision.CodeHit {
	var out []decision.CodeHit
	for _, r := range Catalog {
		if score := r.Score(set, arousal, d.config.Affinity); score >= d.config.Threshold {
			out = append(out, r.Hit(score))
		}
	}
	return out
}

// #endregion detector

// #region decay

// aggregate folds decayed stage-1 detections from up to Lookback prior turns
// into the current candidates, most recent first.
func (d *Detector) aggregate(candidates []decision.CodeHit, users []string, timeline []decision.State) []decision.CodeHit {
	for k := 1; k <= d.config.Lookback; k++ {
		ui, ti := len(users)-k, len(timeline)-k
		if ui < 0 || ti < 0 {
			break
		}
		factor := math.Pow(d.config.Decay, float64(k))
		set := d.extractor.Extract(users[ui], users[:ui])
		for _, old := range d.Stage1(set, timeline[ti].Arousal) {
			weight := old.Confidence * factor
			if weight < d.config.MinWeight {
				continue
			}
			if i := indexOf(candidates, old.Code); i >= 0 {
				candidates[i].Confidence = math.Min(1, candidates[i].Confidence+d.config.CarryShare*weight)
				continue
			}
			// Seeded at the decayed weight; the stage-1 threshold is not reapplied.
			old.Confidence = weight
			candidates = append(candidates, old)
		}
	}
	return candidates
}

func indexOf(hits []decision.CodeHit, code int) int {
	for i, h := range hits {
		if h.Code == code {
			return i
		}
	}
	return -1
}

// #endregion decay

// #region reduce

// reduce applies the band-safety rules: under activation B4 reads as B2 and
// B5 is penalized; then B1 candidates below B1DropBelow are dropped when any
// B2/B3 candidate is present.
func (d *Detector) reduce(candidates []decision.CodeHit, arousal decision.ArousalState) []decision.CodeHit {
	if arousal == decision.Activated {
		for i := range candidates {
			switch candidates[i].Band {
			case decision.B4:
				candidates[i].Band = decision.B2
			case decision.B5:
				candidates[i].Confidence = math.Max(0, candidates[i].Confidence-d.config.ActivatedB5Penalty)
			}
		}
	}
	if !band.Has(candidates, decision.B2, decision.B3) {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.Band == decision.B1 && c.Confidence < d.config.B1DropBelow {
			continue
		}
		out = append(out, c)
	}
	return out
}

// selectTop orders by confidence desc, code asc, and keeps MaxHits.
func (d *Detector) selectTop(candidates []decision.CodeHit) []decision.CodeHit {
	for i := range candidates {
		candidates[i].Confidence = math.Round(candidates[i].Confidence*1000) / 1000
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Code < candidates[j].Code
	})
	if len(candidates) > d.config.MaxHits {
		candidates = candidates[:d.config.MaxHits]
	}
	return candidates
}

// #endregion reduce
