package contract

import (
	"errors"
	"testing"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

const (
	handoff   = `[[NEURAL]]{"focus":"unfinished thesis","steps":["open the draft"],"confidence":0.7}[[/NEURAL]]`
	veraBlock = "[[VERA]]Let's start with one paragraph.[[/VERA]]"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		lead    decision.Lead
		text    string
		wantErr error
	}{
		{"regulating", veraBlock, decision.LeadV, "Let's start with one paragraph.", nil},
		{"cognitive", handoff + "\n" + veraBlock, decision.LeadN, "Let's start with one paragraph.", nil},
		{"fenced-json", "[[NEURAL]]```json\n{\"focus\":\"x\"}\n```[[/NEURAL]]" + veraBlock, decision.LeadN, "Let's start with one paragraph.", nil},
		{"unclosed-vera", "[[VERA]] Still here with you.", decision.LeadV, "Still here with you.", nil},
		{"no-markers", "Just plain text.", "", "", ErrMissingVera},
		{"empty-vera", "[[VERA]]  [[/VERA]]", "", "", ErrMissingVera},
		{"vera-first", veraBlock + handoff, "", "", ErrBlockOrder},
		{"unclosed-neural", `[[NEURAL]]{"focus":"x"}` + veraBlock, "", "", ErrBlockOrder},
		{"stray-close", "[[/NEURAL]]" + veraBlock, "", "", ErrBlockOrder},
		{"not-json", "[[NEURAL]]focus: x[[/NEURAL]]" + veraBlock, "", "", ErrMalformedHandoff},
		{"missing-focus", `[[NEURAL]]{"steps":["a"]}[[/NEURAL]]` + veraBlock, "", "", ErrMalformedHandoff},
		{"confidence-range", `[[NEURAL]]{"focus":"x","confidence":3}[[/NEURAL]]` + veraBlock, "", "", ErrMalformedHandoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Parse(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if out.Lead() != tt.lead {
				t.Errorf("Lead() = %s, want %s", out.Lead(), tt.lead)
			}
			if out.Body() != tt.text {
				t.Errorf("Body() = %q, want %q", out.Body(), tt.text)
			}
		})
	}
}

func TestParse_HandoffFields(t *testing.T) {
	out, err := Parse(handoff + veraBlock)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := out.(Cognitive)
	if !ok {
		t.Fatalf("got %T, want Cognitive", out)
	}
	if c.Handoff.Focus != "unfinished thesis" || len(c.Handoff.Steps) != 1 || c.Handoff.Confidence != 0.7 {
		t.Errorf("unexpected handoff %+v", c.Handoff)
	}
}

func TestCheck(t *testing.T) {
	cog := Cognitive{Handoff: Handoff{Focus: "x"}, Text: "ok"}
	reg := Regulating{Text: "ok"}
	tests := []struct {
		name    string
		lead    decision.Lead
		out     Output
		wantErr error
	}{
		{"v-regulating", decision.LeadV, reg, nil},
		{"n-cognitive", decision.LeadN, cog, nil},
		{"v-with-handoff", decision.LeadV, cog, ErrUnexpectedHandoff},
		{"n-without-handoff", decision.LeadN, reg, ErrMalformedHandoff},
		{"nil", decision.LeadV, nil, ErrMissingVera},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.lead, tt.out)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Check() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReturnsOutputOnMismatch(t *testing.T) {
	out, err := Verify(decision.LeadV, handoff+veraBlock)
	if !errors.Is(err, ErrUnexpectedHandoff) {
		t.Fatalf("Verify() error = %v", err)
	}
	if out == nil || out.Body() == "" {
		t.Error("parsed output should still be returned")
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{handoff + "\n" + veraBlock, "Let's start with one paragraph."},
		{"[[NEURAL]]{\"focus\":\"x\"}", ""},
		{"plain text", "plain text"},
		{"[[VERA]]a[[/VERA]] [[VERA]]b[[/VERA]]", "a b"},
	}
	for _, tt := range tests {
		if got := Strip(tt.raw); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
