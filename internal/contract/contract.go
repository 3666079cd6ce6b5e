package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region markers

// Block delimiters the backend wraps its output in.
const (
	NeuralOpen  = "[[NEURAL]]"
	NeuralClose = "[[/NEURAL]]"
	VeraOpen    = "[[VERA]]"
	VeraClose   = "[[/VERA]]"
)

var (
	ErrMissingVera       = errors.New("contract: missing VERA block")
	ErrMalformedHandoff  = errors.New("contract: malformed NEURAL handoff")
	ErrUnexpectedHandoff = errors.New("contract: NEURAL handoff on a V-led turn")
	ErrBlockOrder        = errors.New("contract: NEURAL block must precede VERA block")
)

// #endregion markers

// #region output

// Output is the typed form of a backend response: Cognitive or Regulating.
type Output interface {
	Lead() decision.Lead
	Body() string
	isOutput()
}

// Handoff is the structured note the cognitive voice passes to the regulating voice.
type Handoff struct {
	Focus      string   `json:"focus"`
	Steps      []string `json:"steps,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Cognitive is an N-led response: a JSON handoff followed by natural language.
type Cognitive struct {
	Handoff Handoff
	Raw     json.RawMessage
	Text    string
}

func (Cognitive) Lead() decision.Lead { return decision.LeadN }
func (c Cognitive) Body() string { return c.Text }
func (Cognitive) isOutput() {}

// Regulating is a V-led response carrying only natural language.
type Regulating struct {
	Text string
}

func (Regulating) Lead() decision.Lead { return decision.LeadV }
func (r Regulating) Body() string { return r.Text }
func (Regulating) isOutput() {}

// #endregion output

// #region schema

const handoffSchema = `{
  "type": "object",
  "required": ["focus"],
  "properties": {
    "focus": {"type": "string", "minLength": 1},
    "steps": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var schema = jsonschema.MustCompileString("handoff.json", handoffSchema)

// #endregion schema

// #region parse

// Parse reads the NEURAL and VERA blocks out of raw backend output.
// A missing VERA close marker takes the rest of the text.
func Parse(raw string) (Output, error) {
	vOpen := strings.Index(raw, VeraOpen)
	if vOpen < 0 {
		return nil, ErrMissingVera
	}
	text := raw[vOpen+len(VeraOpen):]
	if i := strings.Index(text, VeraClose); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingVera
	}

	nOpen := strings.Index(raw, NeuralOpen)
	if nOpen < 0 {
		if strings.Contains(raw, NeuralClose) {
			return nil, ErrBlockOrder
		}
		return Regulating{Text: text}, nil
	}
	if nOpen > vOpen {
		return nil, ErrBlockOrder
	}
	nClose := strings.Index(raw[nOpen:], NeuralClose)
	if nClose < 0 || nOpen+nClose > vOpen {
		return nil, ErrBlockOrder
	}
	body := strings.TrimSpace(raw[nOpen+len(NeuralOpen) : nOpen+nClose])
	body = strings.TrimSuffix(strings.TrimPrefix(body, "```json"), "```")
	body = strings.TrimSpace(body)

	h, err := decodeHandoff([]byte(body))
	if err != nil {
		return nil, err
	}
	return Cognitive{Handoff: h, Raw: json.RawMessage(body), Text: text}, nil
}

func decodeHandoff(body []byte) (Handoff, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Handoff{}, fmt.Errorf("%w: %v", ErrMalformedHandoff, err)
	}
	if err := schema.Validate(payload); err != nil {
		return Handoff{}, fmt.Errorf("%w: %v", ErrMalformedHandoff, err)
	}
	var h Handoff
	if err := json.Unmarshal(body, &h); err != nil {
		return Handoff{}, fmt.Errorf("%w: %v", ErrMalformedHandoff, err)
	}
	return h, nil
}

// #endregion parse

// #region check

// Check verifies the parsed output agrees with the turn's lead.
func Check(lead decision.Lead, out Output) error {
	if out == nil {
		return ErrMissingVera
	}
	switch lead {
	case decision.LeadV:
		if _, ok := out.(Cognitive); ok {
			return ErrUnexpectedHandoff
		}
	case decision.LeadN:
		if _, ok := out.(Regulating); ok {
			return fmt.Errorf("%w: N-led turn without handoff", ErrMalformedHandoff)
		}
	}
	return nil
}

// Verify parses raw and checks it against lead in one step.
func Verify(lead decision.Lead, raw string) (Output, error) {
	out, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := Check(lead, out); err != nil {
		return out, err
	}
	return out, nil
}

// #endregion check

// #region strip

var (
	neuralBlockRe = regexp.MustCompile(`(?s)\[\[NEURAL\]\].*?(\[\[/NEURAL\]\]|$)`)
	markerRe      = regexp.MustCompile(`\[\[/?[A-Z_]+\]\]`)
)

// Strip removes NEURAL blocks with their content and any remaining block markers.
func Strip(raw string) string {
	out := neuralBlockRe.ReplaceAllString(raw, "")
	out = markerRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// #endregion strip
