package model

// EventType identifies a push event sent to an observing client.
// Clients render transcripts append-only, so delivery order matters.
type EventType string

const (
	EventCallStart       EventType = "call_start"
	EventTyping          EventType = "typing"
	EventMessage         EventType = "message"
	EventDashboardUpdate EventType = "dashboard_update"
	EventCallEnd         EventType = "call_end"
)

// CallEvent is one discrete message pushed to the client during a call.
// Only the fields relevant to the event type are populated.
type CallEvent struct {
	Type   EventType `json:"type"`
	CallID string    `json:"call_id,omitempty"`

	// typing / message
	Speaker  Speaker `json:"speaker,omitempty"`
	Text     string  `json:"text,omitempty"`
	Turn     int     `json:"turn,omitempty"`
	IsBounce bool    `json:"is_bounce,omitempty"`
	IsEnd    bool    `json:"is_end,omitempty"`

	// call_start
	Agent      *Agent         `json:"agent,omitempty"`
	AgentInfo  *ArchetypeInfo `json:"agent_info,omitempty"`
	WarmupMode bool           `json:"warmup_mode,omitempty"`

	// dashboard_update
	Confidence  *Confidence `json:"confidence,omitempty"`
	Sentiment   *Sentiment  `json:"sentiment,omitempty"`
	Frustration float64     `json:"frustration,omitempty"`
	Alignment   string      `json:"alignment,omitempty"`

	// call_end
	Summary *CallEndSummary `json:"summary,omitempty"`
}

// CallEndSummary is the terminal payload delivered when a call resolves.
// It must reach the client even when post-call processing fails; in that
// case fallback values are substituted.
type CallEndSummary struct {
	CallID             string           `json:"call_id"`
	Outcome            Outcome          `json:"outcome"`
	OutcomeDescription string           `json:"outcome_description"`
	Points             int              `json:"points"`
	Customer           Customer         `json:"customer"`
	CustomerTier       string           `json:"customer_tier_display"`
	Agent              Agent            `json:"agent"`
	AgentInfo          ArchetypeInfo    `json:"agent_info"`
	CloseAttempted     bool             `json:"close_attempted"`
	ClosePitch         string           `json:"close_pitch"`
	FlagUsed           bool             `json:"flag_used"`
	FlagReason         string           `json:"flag_reason"`
	CustomerBounced    bool             `json:"customer_bounced"`
	Converted          bool             `json:"converted"`
	MotivationGuess    Motivation       `json:"agent_motivation_guess"`
	MotivationCorrect  bool             `json:"motivation_correct"`
	NewPattern         string           `json:"new_pattern"`
	TurnsUsed          int              `json:"turns_used"`
	FinalSentiment     Sentiment        `json:"final_sentiment"`
	OverallStats       OverallStats     `json:"overall_stats"`
	Transcript         []TranscriptLine `json:"transcript"`
}
