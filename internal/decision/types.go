package decision

import "slices"

// #region message

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// #endregion message

// #region arousal

// ArousalState is the inferred regulation state of the user, ordered by fragility.
type ArousalState string

const (
	Regulated    ArousalState = "regulated"
	Activated    ArousalState = "activated"
	Dysregulated ArousalState = "dysregulated"
	Shutdown     ArousalState = "shutdown"
	Dissociated  ArousalState = "dissociated"
)

// ArousalStates lists every state from least to most fragile.
var ArousalStates = []ArousalState{Regulated, Activated, Dysregulated, Shutdown, Dissociated}

// Rank returns the fragility rank (regulated=0 .. dissociated=4), or -1 if unknown.
func (a ArousalState) Rank() int {
	for i, s := range ArousalStates {
		if s == a {
			return i
		}
	}
	return -1
}

// Valid reports whether a is one of the five known states.
func (a ArousalState) Valid() bool { return a.Rank() >= 0 }

// Fragile reports whether a is dysregulated, shutdown or dissociated.
func (a ArousalState) Fragile() bool { return a.Rank() >= Dysregulated.Rank() }

// StateAtRank returns the state with the given fragility rank, clamped to the valid range.
func StateAtRank(rank int) ArousalState {
	if rank < 0 {
		rank = 0
	}
	if rank >= len(ArousalStates) {
		rank = len(ArousalStates) - 1
	}
	return ArousalStates[rank]
}

// State is the output of state inference for one turn.
type State struct {
	Arousal    ArousalState `json:"arousal"`
	Confidence float64      `json:"confidence"`
	Signals    []string     `json:"signals"`
}

// Has reports whether the state carries the given signal tag.
func (s State) Has(tag string) bool {
	for _, t := range s.Signals {
		if t == tag {
			return true
		}
	}
	return false
}

// Signal tags emitted by state inference that other stages read.
const (
	TagDecayClamp     = "decay_clamp"
	TagStateAmbiguous = "state_ambiguous"
)

// #endregion arousal

// #region intent

// PrimaryIntent is the dominant purpose of a user turn.
type PrimaryIntent string

const (
	IntentTask         PrimaryIntent = "task"
	IntentMeaning      PrimaryIntent = "meaning"
	IntentEmotion      PrimaryIntent = "emotion"
	IntentIdentity     PrimaryIntent = "identity"
	IntentVisibility   PrimaryIntent = "visibility"
	IntentRelationship PrimaryIntent = "relationship"
	IntentSomatic      PrimaryIntent = "somatic"
	IntentCrisis       PrimaryIntent = "crisis"
)

// Intent is the classifier output: one primary intent plus free-form tags.
type Intent struct {
	Primary   PrimaryIntent `json:"primary"`
	Secondary []string      `json:"secondary"`
}

// HasTag reports whether tag is among the secondary tags.
func (i Intent) HasTag(tag string) bool {
	for _, t := range i.Secondary {
		if t == tag {
			return true
		}
	}
	return false
}

// Secondary tags with behavioral meaning downstream.
const (
	TagDirectnessRequest = "directness_request"
	TagExecutionRequest  = "execution_request"
	TagQuestion          = "question"
)

// #endregion intent

// #region band

// Band is the safety classification of an adaptive code.
type Band string

const (
	B1          Band = "B1"
	B2          Band = "B2"
	B3          Band = "B3"
	B4          Band = "B4"
	B5          Band = "B5"
	BandUnknown Band = "UNKNOWN"
)

// CodeHit is one detected adaptive code for the current turn.
type CodeHit struct {
	Code       int     `json:"code"`
	Label      string  `json:"label"`
	Band       Band    `json:"band"`
	Confidence float64 `json:"confidence"`
}

// #endregion band

// #region policy

// Tier is the resolved entitlement tier of the caller.
type Tier string

const (
	TierFree      Tier = "free"
	TierSanctuary Tier = "sanctuary"
	TierBuild     Tier = "build"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierSanctuary || t == TierBuild
}

// Challenge is how much the response may push back on the user.
type Challenge string

const (
	ChallengeNone   Challenge = "none"
	ChallengeGentle Challenge = "gentle"
	ChallengeDirect Challenge = "direct"
)

// Pace is the tempo and sentence length of the response.
type Pace string

const (
	PaceSlow      Pace = "slow"
	PaceNormal    Pace = "normal"
	PaceDirective Pace = "directive"
)

// Depth is how much interpretation the response may carry.
type Depth string

const (
	DepthLight  Depth = "light"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

// MemoryUse is the memory scope prompt composition may draw on.
type MemoryUse string

const (
	MemoryNone       MemoryUse = "none"
	MemorySession    MemoryUse = "session"
	MemoryProfile    MemoryUse = "profile"
	MemoryPersistent MemoryUse = "persistent"
)

// Backend is a generative backend profile.
type Backend string

const (
	BackendSafety  Backend = "safety"
	BackendGeneral Backend = "general"
	BackendStrict  Backend = "strict"
)

// MaxQuestions is the upper bound of any question budget.
const MaxQuestions = 3

// Policy is the per-turn behavioral contract.
type Policy struct {
	Tier             Tier      `json:"tier"`
	Challenge        Challenge `json:"challenge"`
	Pace             Pace      `json:"pace"`
	Depth            Depth     `json:"depth"`
	QuestionsAllowed int       `json:"questions_allowed"`
	SomaticAllowed   bool      `json:"somatic_allowed"`
	MemoryUse        MemoryUse `json:"memory_use"`
	ModelOverride    Backend   `json:"model_override,omitempty"` // empty = no override
	Notes            string    `json:"notes"`
}

// Clamp returns p with QuestionsAllowed forced into [0, MaxQuestions].
func (p Policy) Clamp() Policy {
	if p.QuestionsAllowed < 0 {
		p.QuestionsAllowed = 0
	}
	if p.QuestionsAllowed > MaxQuestions {
		p.QuestionsAllowed = MaxQuestions
	}
	return p
}

// #endregion policy

// #region routing

// Lead names the voice that governs the turn: N (structured) or V (regulating).
type Lead string

const (
	LeadN Lead = "N"
	LeadV Lead = "V"
)

// Routing carries the lead decision and the policy.
type Routing struct {
	Lead    Lead   `json:"lead"`
	Support []Lead `json:"support"`
	Policy  Policy `json:"iba_policy"`
}

// Decision is the immutable per-turn aggregate of stages 1-5.
type Decision struct {
	ID      string    `json:"id"`
	Intent  Intent    `json:"intent"`
	State   State     `json:"state"`
	Codes   []CodeHit `json:"adaptive_codes"`
	Routing Routing   `json:"routing"`
}

// Clone returns a deep copy; derived decisions are built from clones, never in place.
func (d Decision) Clone() Decision {
	out := d
	out.Intent.Secondary = slices.Clone(d.Intent.Secondary)
	out.State.Signals = slices.Clone(d.State.Signals)
	out.Codes = slices.Clone(d.Codes)
	out.Routing.Support = slices.Clone(d.Routing.Support)
	return out
}

// MaxCodeConfidence returns the highest code confidence, or 0 with no codes.
func (d Decision) MaxCodeConfidence() float64 {
	var best float64
	for _, c := range d.Codes {
		if c.Confidence > best {
			best = c.Confidence
		}
	}
	return best
}

// #endregion routing

// #region selection

// ModelSelection is the backend chosen for the turn.
type ModelSelection struct {
	Profile        Backend `json:"profile"`
	Model          string  `json:"model"`
	Reason         string  `json:"reason"`
	SafetyFallback bool    `json:"safety_fallback"`
}

// #endregion selection

// #region telemetry

// SignalState is the coarse load classification produced by the meta-governor.
type SignalState string

const (
	SignalStable     SignalState = "stable"
	SignalStrained   SignalState = "strained"
	SignalOverloaded SignalState = "overloaded"
	SignalProtected  SignalState = "protected"
)

// Telemetry reports what the meta-governor did to the decision.
type Telemetry struct {
	SignalState          SignalState `json:"signal_state"`
	LoadScore            float64     `json:"load_score"`
	InterventionsApplied []string    `json:"interventions_applied"`
	UpgradeSuppressed    bool        `json:"upgrade_suppressed"`
	ModelRerouted        bool        `json:"model_rerouted"`
}

// #endregion telemetry

// #region failure

// FailureMode names a resolved failure condition for the turn.
type FailureMode string

const (
	FailureNone                 FailureMode = "none"
	FailureUserEscalation       FailureMode = "user_escalation"
	FailurePostResponseDistress FailureMode = "post_response_distress"
	FailureStateUncertainty     FailureMode = "state_uncertainty"
	FailureLayerDisagreement    FailureMode = "layer_disagreement"
	FailureUnification          FailureMode = "unification_failure"
	FailureOutputRisk           FailureMode = "output_risk"
	FailureRepeatedFallbacks    FailureMode = "repeated_fallbacks"
	FailureCodeConflict         FailureMode = "code_conflict"
	FailureSignalAmbiguity      FailureMode = "signal_ambiguity"
)

// FailureEvent is the resolved failure mode with its triggers and required actions.
type FailureEvent struct {
	Mode     FailureMode `json:"mode"`
	Triggers []string    `json:"triggers"`
	Actions  []string    `json:"actions"`
}

// Triggered reports whether a failure mode other than none was assigned.
func (e FailureEvent) Triggered() bool {
	return e.Mode != "" && e.Mode != FailureNone
}

// #endregion failure
