package lexicon

import (
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// #region normalize

// Normalize lowercases text and folds typographic apostrophes so phrase tables match.
func Normalize(text string) string {
	r := strings.NewReplacer("’", "'", "‘", "'", "“", "\"", "”", "\"")
	return strings.ToLower(r.Replace(text))
}

// Contains reports whether phrase occurs in lower starting at a word boundary.
// Phrases are matched as prefixes of words, so "procrastinat" matches "procrastinating"
// but "rage" does not match "courage".
func Contains(lower, phrase string) bool {
	from := 0
	for {
		i := strings.Index(lower[from:], phrase)
		if i < 0 {
			return false
		}
		at := from + i
		if at == 0 || !isWordByte(lower[at-1]) {
			return true
		}
		from = at + 1
		if from >= len(lower) {
			return false
		}
	}
}

// ContainsPhrase reports whether phrase occurs in lower as whole words, with a
// word boundary on both sides.
func ContainsPhrase(lower, phrase string) bool {
	from := 0
	for {
		i := strings.Index(lower[from:], phrase)
		if i < 0 {
			return false
		}
		at, end := from+i, from+i+len(phrase)
		if (at == 0 || !isWordByte(lower[at-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		from = at + 1
		if from >= len(lower) {
			return false
		}
	}
}

// Count returns how many distinct phrases from the list occur in lower.
func Count(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if Contains(lower, p) {
			n++
		}
	}
	return n
}

// Any reports whether at least one phrase occurs in lower.
func Any(lower string, phrases []string) bool {
	for _, p := range phrases {
		if Contains(lower, p) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '\'' || b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// #endregion normalize

// #region tokenizer

var listItemRe = regexp.MustCompile(`^(?:[-*\x{2022}]|\d{1,2}[.)])\s`)

// IsListItem reports whether s starts with a bullet or a number marker.
func IsListItem(s string) bool {
	return listItemRe.MatchString(s)
}

// Split tokenizes text into sentences: first on newlines, then on terminal
// punctuation followed by a space. List items are kept whole with their marker.
// Sentences missing terminal punctuation get a period.
func Split(text string) []string {
	var out []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if IsListItem(line) {
			out = append(out, line)
			continue
		}
		for _, s := range splitLine(line) {
			out = append(out, Terminate(s))
		}
	}
	return out
}

func splitLine(line string) []string {
	var out []string
	start := 0
	for i := 0; i < len(line); i++ {
		if !isTerminal(line[i]) {
			continue
		}
		j := i + 1
		for j < len(line) && (isTerminal(line[j]) || isCloser(line[j])) {
			j++
		}
		if j < len(line) && line[j] == ' ' {
			if s := strings.TrimSpace(line[start:j]); s != "" {
				out = append(out, s)
			}
			start = j + 1
			i = j
			continue
		}
		i = j - 1
	}
	if rest := strings.TrimSpace(line[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Join rebuilds text from sentences. List items sit on their own lines.
func Join(sentences []string) string {
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			if IsListItem(s) || IsListItem(sentences[i-1]) {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

// Terminate ensures s ends with terminal punctuation. A trailing colon,
// semicolon or comma is replaced with a period.
func Terminate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	end := len(s)
	for end > 0 && isCloser(s[end-1]) {
		end--
	}
	if end > 0 && isTerminal(s[end-1]) {
		return s
	}
	last := s[len(s)-1]
	if last == ':' || last == ';' || last == ',' {
		return s[:len(s)-1] + "."
	}
	return s + "."
}

// Words returns the whitespace-delimited word count.
func Words(s string) int { return len(strings.Fields(s)) }

// Capitalize uppercases the first letter of s.
func Capitalize(s string) string {
	for i, r := range s {
		if unicode.IsLetter(r) {
			return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
		}
	}
	return s
}

func isTerminal(b byte) bool { return b == '.' || b == '!' || b == '?' }

func isCloser(b byte) bool { return b == '"' || b == '\'' || b == ')' }

// #endregion tokenizer

// #region blocklist

// LeakPattern matches internal vocabulary that must never reach the user.
var LeakPattern = regexp.MustCompile(`(?i)\b(neural|vera|iba|policy|policies|routing|band|bands|backend|backends|model|models|layer|layers|unifier|compiler|no-drift|system prompt|llm|arousal|adaptive code|adaptive codes|decision object|signal integrity|b[1-5])\b`)

// Leaks returns the distinct internal terms found in text, lowercased.
func Leaks(text string) []string {
	found := LeakPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(found))
	var out []string
	for _, f := range found {
		f = strings.ToLower(f)
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// LabelPattern matches identity or diagnostic labels applied to the user.
var LabelPattern = regexp.MustCompile(`(?i)\b(you are|you're|you have|you've got)\s+(a |an )?(narcissist|narcissistic|codependent|borderline|bipolar|depressed|depression|ptsd|adhd|ocd|bpd|disorder|trauma response|toxic|broken|damaged|lazy|failure)\b`)

// UrgencyPattern matches pressure phrasing in a response.
var UrgencyPattern = regexp.MustCompile(`(?i)(\b(right now|immediately|asap|urgent(ly)?|hurry|as soon as possible|before it's too late|don't wait)\b|!{2,})`)

// #endregion blocklist

// #region sentence-kinds

// IsInsight reports whether a sentence carries an interpretive insight.
func IsInsight(sentence string) bool {
	return Any(Normalize(sentence), InsightMarkers)
}

// IsConfrontational reports whether a sentence pushes back on the user.
// Markers match whole phrases only.
func IsConfrontational(sentence string) bool {
	lower := Normalize(sentence)
	for _, p := range Confrontational {
		if ContainsPhrase(lower, p) {
			return true
		}
	}
	return false
}

// IsQuestion reports whether a sentence contains a question mark.
func IsQuestion(sentence string) bool { return strings.Contains(sentence, "?") }

var whyRe = regexp.MustCompile(`(?i)\bwhy\b`)

// IsWhyQuestion reports whether a sentence is a question asking "why".
func IsWhyQuestion(sentence string) bool {
	return IsQuestion(sentence) && whyRe.MatchString(sentence)
}

// SomaticCommandPattern matches breathing, posture and visualization instructions.
var SomaticCommandPattern = regexp.MustCompile(`(?i)\b(take (a|some) (deep |slow )?breaths?|breathe (in|out|deeply|slowly)|inhale|exhale|close your eyes|relax your (shoulders|jaw|body|muscles)|unclench|sit up straight|roll your shoulders|feel your feet|ground yourself|scan your body|notice your (body|breath|breathing)|place your hand|picture yourself|imagine yourself|visuali[sz]e)\b`)

// BodyPattern matches body-reference language.
var BodyPattern = regexp.MustCompile(`(?i)\b(body|bodies|breath|breaths|breathing|breathe|chest|shoulders?|stomach|belly|heart ?beat|heart|muscles?|jaw|feet|hands?|posture|tension|throat|somatic)\b`)

// #endregion sentence-kinds

// #region hashing

// Pick selects one line deterministically from an FNV-1a hash of parts.
func Pick(lines []string, parts ...string) string {
	if len(lines) == 0 {
		return ""
	}
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return lines[int(h.Sum32()%uint32(len(lines)))]
}

// #endregion hashing
