package compiler

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// run carries the settings one compilation pass sequence works under.
type run struct {
	policy    decision.Policy
	arousal   decision.ArousalState
	caps      Caps
	questions int
	strict    bool
	words     int
	maxList   int
}

// pass is a pure sentences-to-sentences transform.
type pass struct {
	name string
	fn   func(r run, in []string) []string
}

// Pass names as recorded in snapshots.
const (
	PassDelimiters = "delimiters"
	PassLeak       = "leak_filter"
	PassCertainty  = "certainty"
	PassDepth      = "depth"
	PassChallenge  = "challenge"
	PassPace       = "pace"
	PassQuestions  = "questions"
	PassSomatic    = "somatic"
	PassScrub      = "strict_scrub"
	PassClosing    = "closing"
)

func passes(strict bool) []pass {
	ps := []pass{
		{PassLeak, leakFilter},
		{PassCertainty, deflate},
		{PassDepth, governDepth},
		{PassChallenge, enforceChallenge},
		{PassPace, normalizePace},
		{PassQuestions, limitQuestions},
		{PassSomatic, stripSomatic},
	}
	if strict {
		ps = append(ps, pass{PassScrub, scrub})
	}
	return append(ps, pass{PassClosing, closeWithAgency})
}

// #region leak

func leakFilter(_ run, in []string) []string {
	return keep(in, func(s string) bool { return !lexicon.LeakPattern.MatchString(s) })
}

// #endregion leak

// #region certainty

type rewrite struct {
	re   *regexp.Regexp
	with string
}

var certaintyRules = []rewrite{
	{regexp.MustCompile(`(?i)\balways\b`), "often"},
	{regexp.MustCompile(`(?i)\bnever\b`), "rarely"},
	{regexp.MustCompile(`(?i)\bdefinitely\b`), "possibly"},
	{regexp.MustCompile(`(?i)\bcertainly\b`), "likely"},
	{regexp.MustCompile(`(?i)\bobviously\b`), "perhaps"},
	{regexp.MustCompile(`(?i)\bclearly\b`), "perhaps"},
	{regexp.MustCompile(`(?i)\bthis is because\b`), "this may be because"},
	{regexp.MustCompile(`(?i)\bthe reason is\b`), "one reason may be"},
	{regexp.MustCompile(`(?i)\byou will\b`), "you might"},
	{regexp.MustCompile(`(?i)\bthis proves\b`), "this may suggest"},
	{regexp.MustCompile(`(?i)\beveryone\b`), "many people"},
	{regexp.MustCompile(`(?i)\bnobody\b`), "few people"},
}

func deflate(_ run, in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		for _, r := range certaintyRules {
			s = replaceKeepCase(r.re, s, r.with)
		}
		out[i] = s
	}
	return out
}

// replaceKeepCase replaces matches of re with repl, capitalizing repl when the match was.
func replaceKeepCase(re *regexp.Regexp, s, repl string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		r := []rune(m)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			return lexicon.Capitalize(repl)
		}
		return repl
	})
}

// #endregion certainty

// #region depth

func governDepth(r run, in []string) []string {
	sentences, insights := 0, 0
	return keep(in, func(s string) bool {
		if lexicon.IsClosing(s) {
			return true
		}
		if lexicon.IsInsight(s) {
			if insights >= r.caps.Insights {
				return false
			}
			insights++
		}
		if sentences >= r.caps.Sentences {
			return false
		}
		sentences++
		return true
	})
}

// #endregion depth

// #region challenge

var pressureRe = regexp.MustCompile(`(?i)\byou (need to|have to|must|should|ought to)\b`)

func enforceChallenge(r run, in []string) []string {
	challenge := r.policy.Challenge
	if r.strict {
		challenge = decision.ChallengeNone
	}
	switch challenge {
	case decision.ChallengeGentle:
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = replaceKeepCase(pressureRe, s, "you could")
		}
		return out
	case decision.ChallengeDirect:
		seen := false
		return keep(in, func(s string) bool {
			if !lexicon.IsConfrontational(s) {
				return true
			}
			if seen {
				return false
			}
			seen = true
			return true
		})
	}
	return keep(in, func(s string) bool { return !lexicon.IsConfrontational(s) })
}

// #endregion challenge

// #region pace

var clauseBreaks = []string{"; ", ", and ", ", but "}

func normalizePace(r run, in []string) []string {
	slow := r.policy.Pace == decision.PaceSlow
	var out []string
	for _, s := range in {
		if lexicon.IsListItem(s) || lexicon.IsClosing(s) {
			out = append(out, s)
			continue
		}
		parts := []string{s}
		if slow {
			parts = splitClauses(s)
		}
		for _, p := range parts {
			out = append(out, truncate(p, r.words))
		}
	}
	if !slow {
		return out
	}
	out = capLists(out, r.maxList)
	return governDepth(r, out)
}

func splitClauses(s string) []string {
	parts := []string{s}
	for _, sep := range clauseBreaks {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	if len(parts) == 1 {
		return parts
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, lexicon.Capitalize(lexicon.Terminate(p)))
	}
	return out
}

func truncate(s string, limit int) string {
	words := strings.Fields(s)
	if limit <= 0 || len(words) <= limit {
		return s
	}
	cut := strings.Join(words[:limit], " ")
	cut = strings.TrimRight(cut, ",;:-")
	return lexicon.Terminate(cut)
}

func capLists(in []string, limit int) []string {
	streak := 0
	return keep(in, func(s string) bool {
		if !lexicon.IsListItem(s) {
			streak = 0
			return true
		}
		streak++
		return streak <= limit
	})
}

// #endregion pace

// #region questions

func limitQuestions(r run, in []string) []string {
	var out []string
	asked := 0
	neutral := false
	for _, s := range in {
		if !lexicon.IsQuestion(s) {
			out = append(out, s)
			continue
		}
		s = s[:strings.IndexByte(s, '?')+1]
		if r.arousal != decision.Regulated && lexicon.IsWhyQuestion(s) {
			if !neutral {
				out = append(out, lexicon.NeutralWhy)
				neutral = true
			}
			continue
		}
		if asked >= r.questions {
			continue
		}
		asked++
		out = append(out, s)
	}
	return out
}

// #endregion questions

// #region somatic

func stripSomatic(r run, in []string) []string {
	return keep(in, func(s string) bool {
		if lexicon.SomaticCommandPattern.MatchString(s) {
			return false
		}
		return r.policy.SomaticAllowed || !lexicon.BodyPattern.MatchString(s)
	})
}

// #endregion somatic

// #region scrub

func scrub(r run, in []string) []string {
	return keep(in, func(s string) bool {
		if lexicon.LabelPattern.MatchString(s) {
			return false
		}
		return r.arousal != decision.Activated || !lexicon.UrgencyPattern.MatchString(s)
	})
}

// #endregion scrub

// #region closing

// closeWithAgency moves an existing closing to the end, or appends one picked from the text.
func closeWithAgency(_ run, in []string) []string {
	closing := ""
	body := keep(in, func(s string) bool {
		if lexicon.IsClosing(s) {
			if closing == "" {
				closing = strings.TrimSpace(s)
			}
			return false
		}
		return true
	})
	if closing == "" {
		closing = lexicon.Pick(lexicon.AgencyClosings, lexicon.Join(body))
	}
	return append(body, closing)
}

// #endregion closing

func keep(in []string, ok func(string) bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if ok(s) {
			out = append(out, s)
		}
	}
	return out
}
