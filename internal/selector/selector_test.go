package selector

import (
	"testing"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

func dec(lead decision.Lead, a decision.ArousalState, c decision.Challenge, override decision.Backend, hits ...decision.CodeHit) *decision.Decision {
	return &decision.Decision{
		State:   decision.State{Arousal: a, Confidence: 0.7},
		Codes:   hits,
		Routing: decision.Routing{Lead: lead, Policy: decision.Policy{Challenge: c, ModelOverride: override}},
	}
}

func TestSelect_Waterfall(t *testing.T) {
	b1 := decision.CodeHit{Code: 101, Band: decision.B1, Confidence: 0.7}
	b2 := decision.CodeHit{Code: 202, Band: decision.B2, Confidence: 0.7}
	b5 := decision.CodeHit{Code: 501, Band: decision.B5, Confidence: 0.7}

	tests := []struct {
		name     string
		d        *decision.Decision
		want     decision.Backend
		reason   string
		fallback bool
	}{
		{"nil", nil, decision.BackendSafety, ReasonInvalid, true},
		{"invalid-state", dec(decision.LeadN, "calm", decision.ChallengeNone, ""), decision.BackendSafety, ReasonInvalid, true},
		{"override", dec(decision.LeadN, decision.Regulated, decision.ChallengeDirect, decision.BackendSafety, b1), decision.BackendSafety, ReasonOverride, false},
		{"lead-v", dec(decision.LeadV, decision.Regulated, decision.ChallengeNone, ""), decision.BackendSafety, ReasonLeadV, false},
		{"fragile", dec(decision.LeadN, decision.Dysregulated, decision.ChallengeNone, ""), decision.BackendSafety, ReasonFragile, false},
		{"protective-band", dec(decision.LeadN, decision.Regulated, decision.ChallengeNone, "", b2), decision.BackendSafety, ReasonProtectedBand, false},
		{"n-none", dec(decision.LeadN, decision.Regulated, decision.ChallengeNone, ""), decision.BackendGeneral, ReasonNoChallenge, false},
		{"n-gentle", dec(decision.LeadN, decision.Activated, decision.ChallengeGentle, "", b5), decision.BackendGeneral, ReasonGentle, false},
		{"n-direct-b1", dec(decision.LeadN, decision.Regulated, decision.ChallengeDirect, "", b1), decision.BackendStrict, ReasonStrict, false},
		{"n-direct-mixed", dec(decision.LeadN, decision.Regulated, decision.ChallengeDirect, "", b1, b5), decision.BackendSafety, ReasonDefault, true},
		{"n-direct-activated", dec(decision.LeadN, decision.Activated, decision.ChallengeDirect, "", b1), decision.BackendSafety, ReasonDefault, true},
		{"n-direct-no-codes", dec(decision.LeadN, decision.Regulated, decision.ChallengeDirect, ""), decision.BackendSafety, ReasonDefault, true},
		{"strict-override-ignored", dec(decision.LeadV, decision.Regulated, decision.ChallengeNone, decision.BackendStrict), decision.BackendSafety, ReasonLeadV, false},
	}
	s := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Select(tt.d)
			if got.Profile != tt.want || got.Reason != tt.reason || got.SafetyFallback != tt.fallback {
				t.Errorf("got %+v, want %s/%s/%v", got, tt.want, tt.reason, tt.fallback)
			}
			if got.Model == "" {
				t.Error("model id should be resolved from config")
			}
		})
	}
}
