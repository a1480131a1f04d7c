// Package model defines the shared domain types for the simulator:
// customer and agent profiles, call state, outcomes, and the event
// payloads pushed to observing clients.
package model

import "time"

// Tier is the deal-size class of a customer. Score magnitudes scale with it.
type Tier string

const (
	TierSingle    Tier = "single"
	TierTenPack   Tier = "ten_pack"
	TierFiftyPack Tier = "fifty_pack"
)

// Tiers lists all tiers in ascending value order.
var Tiers = []Tier{TierSingle, TierTenPack, TierFiftyPack}

// DisplayName returns the human-readable tier label.
func (t Tier) DisplayName() string {
	switch t {
	case TierSingle:
		return "Single Phone"
	case TierTenPack:
		return "10-Pack"
	case TierFiftyPack:
		return "50-Pack"
	}
	return string(t)
}

// Motivation is a customer's decision-making style.
// Head customers want data, heart customers want connection,
// hand customers want speed.
type Motivation string

const (
	MotivationHead  Motivation = "head"
	MotivationHeart Motivation = "heart"
	MotivationHand  Motivation = "hand"
)

// Motivations lists all motivation types.
var Motivations = []Motivation{MotivationHead, MotivationHeart, MotivationHand}

// Archetype is an agent's behavioral style.
type Archetype string

const (
	ArchetypeCloser    Archetype = "closer"
	ArchetypeDetective Archetype = "detective"
	ArchetypeEmpath    Archetype = "empath"
	ArchetypeRobot     Archetype = "robot"
	ArchetypeGambler   Archetype = "gambler"
)

// Archetypes lists all agent archetypes.
var Archetypes = []Archetype{
	ArchetypeCloser, ArchetypeDetective, ArchetypeEmpath,
	ArchetypeRobot, ArchetypeGambler,
}

// Customer is the profile drawn for one call. Immutable once generated.
// IsFraud is ground truth hidden from the agent persona.
type Customer struct {
	Name       string     `json:"name"`
	Tier       Tier       `json:"tier"`
	Motivation Motivation `json:"motivation"`
	IsFraud    bool       `json:"is_fraud"`
	CallReason string     `json:"call_reason"`
	Patience   int        `json:"patience"` // 1-10, derived from motivation
}

// Agent is the rep persona drawn for one call. Immutable once generated.
type Agent struct {
	Name  string    `json:"name"`
	Style Archetype `json:"style"`
}

// Sentiment is the latest external read of the customer's emotional state.
// Replaced wholesale each turn, never accumulated. All metrics are 1-10.
type Sentiment struct {
	Satisfaction        int    `json:"satisfaction"`
	Trust               int    `json:"trust"`
	Urgency             int    `json:"urgency"`
	Frustration         int    `json:"frustration"`
	LikelihoodToConvert int    `json:"likelihood_to_convert"`
	EmotionalTone       string `json:"emotional_tone"`
}

// NeutralSentiment is the fallback used when the sentiment assessment
// fails or returns unparseable output.
func NeutralSentiment() Sentiment {
	return Sentiment{
		Satisfaction:        5,
		Trust:               5,
		Urgency:             5,
		Frustration:         3,
		LikelihoodToConvert: 5,
		EmotionalTone:       "neutral",
	}
}

// MotivationGuess is the head/heart/hand percentage split from the
// fraud-confidence assessment. Percentages nominally sum to 100.
type MotivationGuess struct {
	Head  int `json:"head"`
	Heart int `json:"heart"`
	Hand  int `json:"hand"`
}

// Dominant returns the motivation with the highest percentage.
// Ties resolve head > heart > hand.
func (g MotivationGuess) Dominant() Motivation {
	if g.Head >= g.Heart && g.Head >= g.Hand {
		return MotivationHead
	}
	if g.Heart >= g.Head && g.Heart >= g.Hand {
		return MotivationHeart
	}
	return MotivationHand
}

// Confidence is the latest external fraud/motivation read of the caller.
type Confidence struct {
	FraudLikelihood int             `json:"fraud_likelihood"` // 1-10
	MotivationGuess MotivationGuess `json:"motivation_guess"`
	Reasoning       string          `json:"reasoning"`
}

// NeutralConfidence is the fallback used when the confidence assessment
// fails or returns unparseable output.
func NeutralConfidence() Confidence {
	return Confidence{
		FraudLikelihood: 5,
		MotivationGuess: MotivationGuess{Head: 33, Heart: 34, Hand: 33},
		Reasoning:       "Analysis in progress...",
	}
}

// Speaker identifies who produced a transcript line.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
	SpeakerSystem   Speaker = "system"
)

// TranscriptLine is one entry in a call's append-only transcript.
type TranscriptLine struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Turn    int     `json:"turn"`
}

// Outcome is the resolved result of a call. Always derived from call state
// plus the fraud ground truth, never stored as its own source of truth.
type Outcome string

const (
	OutcomeConversion  Outcome = "conversion"
	OutcomeMissedOpp   Outcome = "missed_opp"
	OutcomeFraudCaught Outcome = "fraud_caught"
	OutcomeFraudMissed Outcome = "fraud_missed"
)

// Description returns the human-readable summary for an outcome.
func (o Outcome) Description() string {
	switch o {
	case OutcomeConversion:
		return "Successfully converted the customer!"
	case OutcomeMissedOpp:
		return "Missed opportunity - customer didn't convert"
	case OutcomeFraudCaught:
		return "Fraud correctly identified and stopped!"
	case OutcomeFraudMissed:
		return "Fraud slipped through - bad outcome!"
	}
	return "Unknown outcome"
}

// CallSummary is the compact per-call record kept in an archetype's
// recent-calls window.
type CallSummary struct {
	CallID             string     `json:"call_id"`
	CustomerTier       Tier       `json:"customer_tier"`
	CustomerMotivation Motivation `json:"customer_motivation"`
	WasFraud           bool       `json:"was_fraud"`
	Outcome            Outcome    `json:"outcome"`
	Points             int        `json:"points"`
	Turns              int        `json:"turns"`
}

// ArchetypeState is the persistent per-archetype record: aggregate stats
// plus the bounded list of learned patterns. Loaded whole, saved whole.
type ArchetypeState struct {
	Style        Archetype     `json:"style"`
	TotalCalls   int           `json:"total_calls"`
	Conversions  int           `json:"conversions"`
	FraudsCaught int           `json:"frauds_caught"`
	FraudsMissed int           `json:"frauds_missed"`
	MissedOpps   int           `json:"missed_opps"`
	TotalPoints  int           `json:"total_points"`
	Patterns     []string      `json:"patterns_noted"`
	LastCalls    []CallSummary `json:"last_5_calls"`
}

// NewArchetypeState returns the zero state for a style that has never
// taken a call.
func NewArchetypeState(style Archetype) ArchetypeState {
	return ArchetypeState{
		Style:     style,
		Patterns:  []string{},
		LastCalls: []CallSummary{},
	}
}

// RecordOutcome folds one finished call into the aggregate counters and
// the recent-calls window.
func (s *ArchetypeState) RecordOutcome(outcome Outcome, points int, summary CallSummary) {
	s.TotalCalls++
	s.TotalPoints += points

	switch outcome {
	case OutcomeConversion:
		s.Conversions++
	case OutcomeFraudCaught:
		s.FraudsCaught++
	case OutcomeFraudMissed:
		s.FraudsMissed++
	case OutcomeMissedOpp:
		s.MissedOpps++
	}

	s.LastCalls = append(s.LastCalls, summary)
	if len(s.LastCalls) > 5 {
		s.LastCalls = s.LastCalls[len(s.LastCalls)-5:]
	}
}

// AddPattern appends a learned pattern, skipping duplicates and evicting
// the oldest entries beyond maxPatterns.
func (s *ArchetypeState) AddPattern(pattern string, maxPatterns int) {
	for _, p := range s.Patterns {
		if p == pattern {
			return
		}
	}
	s.Patterns = append(s.Patterns, pattern)
	if len(s.Patterns) > maxPatterns {
		s.Patterns = s.Patterns[len(s.Patterns)-maxPatterns:]
	}
}

// CallRecord is the full append-only log entry for one finished call.
type CallRecord struct {
	CallID            string           `json:"call_id"`
	Timestamp         time.Time        `json:"timestamp"`
	Customer          Customer         `json:"customer"`
	Agent             Agent            `json:"agent"`
	TurnsUsed         int              `json:"turns_used"`
	CloseAttempted    bool             `json:"close_attempted"`
	ClosePitch        string           `json:"close_pitch"`
	FlagUsed          bool             `json:"flag_used"`
	FlagReason        string           `json:"flag_reason"`
	CustomerBounced   bool             `json:"customer_bounced"`
	Outcome           Outcome          `json:"outcome"`
	Converted         bool             `json:"converted"`
	MotivationGuess   Motivation       `json:"agent_motivation_guess"`
	MotivationCorrect bool             `json:"motivation_correct"`
	Points            int              `json:"points"`
	NewPattern        string           `json:"new_pattern"`
	FinalSentiment    Sentiment        `json:"final_sentiment"`
	FinalFrustration  float64          `json:"final_frustration"`
	Transcript        []TranscriptLine `json:"transcript"`
}

// OverallStats aggregates outcomes across every logged call.
type OverallStats struct {
	TotalCalls   int `json:"total_calls"`
	TotalPoints  int `json:"total_points"`
	Conversions  int `json:"conversions"`
	FraudsCaught int `json:"frauds_caught"`
	FraudsMissed int `json:"frauds_missed"`
	MissedOpps   int `json:"missed_opps"`
}

// LeaderboardEntry is one archetype's row in the points leaderboard.
type LeaderboardEntry struct {
	Style          Archetype `json:"style"`
	TotalCalls     int       `json:"total_calls"`
	TotalPoints    int       `json:"total_points"`
	Conversions    int       `json:"conversions"`
	FraudsCaught   int       `json:"frauds_caught"`
	FraudsMissed   int       `json:"frauds_missed"`
	ConversionRate float64   `json:"conversion_rate"` // percent, one decimal
}

// ArchetypeInfo is the display metadata for an agent archetype.
type ArchetypeInfo struct {
	Style       Archetype `json:"style"`
	DisplayName string    `json:"display_name"`
	Strength    string    `json:"strength"`
	Weakness    string    `json:"weakness"`
}
