package router

// Stage identifies which tier of the fallback chain produced the final
// text. Closed set: adding a tier means adding a constant here, which keeps
// switch statements over stages exhaustive.
type Stage string

const (
	// StageGreeting answered via the greeting regex, no model call.
	StageGreeting Stage = "greeting_shortcut"
	// StageInventory built a list straight from context, no model call.
	StageInventory Stage = "inventory_shortcut"
	// StageCache served a previously validated answer.
	StageCache Stage = "answer_cache"
	// StagePrimary is the first JSON-evidence pass on the primary model.
	StagePrimary Stage = "primary_json"
	// StagePrimaryRetry is the zero-temperature re-prompt of the primary.
	StagePrimaryRetry Stage = "primary_retry"
	// StageFallback is the JSON-evidence pass on the fallback model.
	StageFallback Stage = "fallback_json"
	// StageBlocked is the terminal state when no stage produced
	// evidence-backed content.
	StageBlocked Stage = "terminal_block"
)

// Reason tags explaining the decision path for one turn.
const (
	ReasonGreeting          = "greeting"
	ReasonInventory         = "inventory_from_context"
	ReasonCached            = "cached_answer"
	ReasonEvidenceValidated = "evidence_validated"
	ReasonEvidenceMismatch  = "evidence_mismatch_blocked"
	ReasonClarification     = "clarification_next_step"
	ReasonNoSupportedAnswer = "no_supported_answer"
)

// Request is one user turn. ContextText is the concatenated top-K chunks
// supplied by the retrieval layer; the router performs no retrieval itself.
type Request struct {
	TenantID    string
	Message     string
	ContextText string
}

// Result is the router's final output for one turn. Ephemeral: returned to
// the caller, never persisted (except through the optional answer cache).
type Result struct {
	Text    string   `json:"text"`
	Stage   Stage    `json:"stage"`
	Reason  string   `json:"reason"`
	Matched []string `json:"matched,omitempty"`
}

// modelReply is the strict JSON contract every model stage must honour.
// Answer is nullable: a model unsure of its grounding returns null plus a
// clarifying next_step.
type modelReply struct {
	Answer         *string  `json:"answer"`
	EvidenceQuotes []string `json:"evidence_quotes"`
	NextStep       string   `json:"next_step"`
}
