package lexicon

// #region families

// Family names a marker family counted by signal extraction.
type Family string

const (
	Urgency    Family = "urgency"
	Overwhelm  Family = "overwhelm"
	Panic      Family = "panic"
	Collapse   Family = "collapse"
	Detachment Family = "detachment"
	Anger      Family = "anger"

	Procrastination Family = "procrastination"
	Perfectionism   Family = "perfectionism"
	Overplanning    Family = "overplanning"
	PeoplePleasing  Family = "people_pleasing"
	SelfCriticism   Family = "self_criticism"
	Comparison      Family = "comparison"
	SelfSilencing   Family = "self_silencing"
	Freeze          Family = "freeze"
	Drift           Family = "drift"
	Heat            Family = "heat"
	Resentment      Family = "resentment"
	Rehearsal       Family = "rehearsal"
	Anticipation    Family = "anticipation"
)

// DistressFamilies are the families that feed state inference directly.
var DistressFamilies = []Family{Urgency, Overwhelm, Panic, Collapse, Detachment}

// #endregion families

// #region marker-tables

// Markers maps every family to its phrase list. Phrases are lowercase substrings.
var Markers = map[Family][]string{
	Urgency: {
		"asap", "right now", "immediately", "urgent", "hurry", "deadline",
		"running out of time", "no time", "need this now", "quickly",
	},
	Overwhelm: {
		"too much", "overwhelm", "can't handle", "cannot handle", "can't cope",
		"drowning", "falling apart", "spiraling", "spiralling", "so much going on",
	},
	Panic: {
		"panic", "can't breathe", "cannot breathe", "heart is racing", "heart racing",
		"freaking out", "terrified", "shaking", "losing my mind",
	},
	Collapse: {
		"can't move", "can't get up", "no energy", "exhausted", "numb", "give up",
		"shut down", "shutting down", "don't care anymore", "nothing matters",
		"too tired", "empty inside",
	},
	Detachment: {
		"not real", "unreal", "floating", "outside my body", "watching myself",
		"disconnected", "foggy", "far away", "on autopilot", "not really here",
		"detached", "spaced out",
	},
	Anger: {
		"angry", "furious", "pissed", "rage", "sick of", "fed up", "so mad",
		"unfair", "hate this", "hate them",
	},

	Procrastination: {
		"procrastinat", "putting off", "put it off", "keep delaying", "haven't started",
		"can't start", "can't get started", "avoiding starting", "keep stalling",
	},
	Perfectionism: {
		"perfect", "not good enough yet", "has to be flawless", "redo it again",
		"never finished", "polish it", "every detail",
	},
	Overplanning: {
		"planning to plan", "another plan", "color-code", "reorganiz", "optimize my system",
		"the perfect system", "more research before", "new productivity app",
	},
	PeoplePleasing: {
		"don't want to disappoint", "make everyone happy", "can't say no", "couldn't say no",
		"let them down", "what they think of me", "keep the peace", "said yes again",
	},
	SelfCriticism: {
		"i'm so stupid", "i am so stupid", "i'm an idiot", "i'm useless", "i am useless",
		"i'm a failure", "i am a failure", "i hate myself", "what's wrong with me",
		"i always mess", "i ruin everything",
	},
	Comparison: {
		"everyone else", "better than me", "ahead of me", "compared to", "compare myself",
		"they all have", "behind everyone",
	},
	SelfSilencing: {
		"don't want to be a burden", "keep it to myself", "kept it to myself", "no one wants to hear",
		"shouldn't complain", "it doesn't matter what i", "better if i stay quiet", "swallow it",
		"never say anything",
	},
	Freeze: {
		"frozen", "freeze", "can't do anything", "paralyzed", "paralysed", "stuck in bed",
		"staring at the wall",
	},
	Drift: {
		"lose time", "losing time", "zone out", "zoning out", "blank", "drifting",
		"don't feel like me",
	},
	Heat: {
		"want to scream", "want to yell", "so angry", "furious", "boiling", "rage", "lose it on",
	},
	Resentment: {
		"they always", "they never", "after everything i", "still bitter", "can't let it go",
		"resent", "keeps happening to me",
	},
	Rehearsal: {
		"what if i say", "rehearse", "replaying", "going over it", "over and over",
		"in my head again", "practice what to say", "script it",
	},
	Anticipation: {
		"what if", "worst case", "going to go wrong", "dreading", "something bad will",
		"can't stop thinking about tomorrow", "bracing for",
	},
}

// #endregion marker-tables

// #region intent-tables

// Crisis phrases force the crisis intent and the protected signal state.
var Crisis = []string{
	"kill myself", "suicide", "suicidal", "end my life", "want to die", "hurt myself",
	"self harm", "self-harm", "no reason to live", "better off dead", "not want to be alive",
	"don't want to be alive", "end it all",
}

// IntentSomatic covers bodily sensations.
var IntentSomatic = []string{
	"can't breathe", "cannot breathe", "chest", "heart racing", "heart is racing", "shaking",
	"dizzy", "nauseous", "headache", "my body", "tight throat", "stomach",
}

// IntentEmotion covers feeling language.
var IntentEmotion = []string{
	"i feel", "i'm feeling", "feeling", "sad", "anxious", "scared", "afraid", "lonely",
	"hurt", "angry", "upset", "overwhelm", "panic", "depressed", "cry", "crying",
}

// IntentIdentity covers self-concept language.
var IntentIdentity = []string{
	"who am i", "i'm not enough", "i am not enough", "kind of person", "identity",
	"i'm a failure", "i am a failure", "the real me", "who i am", "worthless",
}

// IntentRelationship covers other people.
var IntentRelationship = []string{
	"my partner", "my mom", "my mother", "my dad", "my father", "my friend", "boyfriend",
	"girlfriend", "husband", "wife", "relationship", "my boss", "coworker", "my family",
}

// IntentVisibility covers being seen and sharing work.
var IntentVisibility = []string{
	"post it", "posting", "share my work", "being seen", "audience", "publish", "launch",
	"judged", "visible", "put myself out there", "followers",
}

// IntentMeaning covers purpose and significance.
var IntentMeaning = []string{
	"meaning", "purpose", "what's the point", "what is the point", "why does it matter",
	"worth it", "bigger picture", "matter in the end",
}

// IntentTask covers getting things done.
var IntentTask = []string{
	"help me", "plan", "how do i", "how should i", "procrastinat", "deadline", "todo",
	"to-do", "schedule", "finish", "project", "task", "steps",
}

// DirectnessRequests are explicit asks for blunt feedback.
var DirectnessRequests = []string{
	"don't sugarcoat", "dont sugarcoat", "be blunt", "be direct", "be honest with me",
	"tough love", "straight up", "no fluff", "call me out", "tell me straight",
}

// ExecutionRequests are asks for concrete output rather than containment.
var ExecutionRequests = []string{
	"write the code", "build it", "ship", "step by step plan", "give me a plan",
	"draft the", "make a list", "write it for me", "action items",
}

// FollowUpOpeners mark short prompts that continue the previous topic.
var FollowUpOpeners = []string{
	"and", "but", "so", "why", "how", "what", "really", "tell me more", "go on",
	"what do you mean", "like what", "ok", "okay",
}

// #endregion intent-tables

// #region conversation-tables

// InsightMarkers identify interpretive, insight-bearing sentences.
var InsightMarkers = []string{
	"it sounds like", "this suggests", "the pattern", "underneath", "what's really happening",
	"what is really happening", "the reason you", "you tend to", "this means", "at the core",
	"i notice", "perhaps you", "it seems like you", "part of you",
}

// PushBack are user replies that signal an interpretation landed badly.
var PushBack = []string{
	"that hurt", "i feel worse", "that's not it", "that is not it", "stop analyzing",
	"that's not true", "you don't get it", "why would you say", "that made it worse",
}

// Emotional words feed the meta-governor's density score.
var Emotional = []string{
	"sad", "scared", "afraid", "anxious", "hurt", "lonely", "ashamed", "hopeless",
	"crying", "cry", "grief", "angry", "panic", "overwhelm", "desperate", "broken",
}

// Confusion markers feed the meta-governor's confusion score.
var Confusion = []string{
	"confused", "don't understand", "do not understand", "makes no sense", "what do you mean",
	"i'm lost", "i am lost", "???", "i don't get it",
}

// Dependency markers feed the meta-governor's dependency score.
var Dependency = []string{
	"only you", "can't do this without you", "need you", "you're the only one",
	"you are the only one", "don't leave", "always here for me", "only one who understands",
}

// TopicShifts are in-message markers of an abrupt change of subject.
var TopicShifts = []string{
	"anyway", "oh and", "also,", "whatever", "never mind", "nevermind", "different question",
}

// CircularMarkers are in-message markers of looping thought.
var CircularMarkers = []string{
	"again and again", "over and over", "keep going back", "back to square one",
	"same thing", "round in circles", "keep thinking the same",
}

// #endregion conversation-tables

// #region response-tables

// Confrontational markers identify sentences that push back on the user.
var Confrontational = []string{
	"you need to stop", "stop making excuses", "be honest with yourself", "you're avoiding",
	"you are avoiding", "the real problem is you", "face it", "no excuses", "you keep choosing",
	"let's be real", "you're just", "you are just", "just quit", "you should quit",
	"quit making excuses",
}

// UrgencyTone are response phrasings that add time pressure.
var UrgencyTone = []string{
	"right now", "immediately", "asap", "urgent", "hurry", "don't wait", "before it's too late",
	"as soon as possible", "today!",
}

// #endregion response-tables
