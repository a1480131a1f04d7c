package game

import (
	"fmt"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/model"
)

// Phase is the machine's position in the turn loop.
type Phase string

const (
	PhaseGreeting         Phase = "greeting"
	PhaseAwaitAgent       Phase = "await_agent"
	PhaseAwaitCustomer    Phase = "await_customer"
	PhaseAwaitAssessments Phase = "await_assessments"
	PhaseAwaitCloseAnswer Phase = "await_close_answer"
	PhaseDone             Phase = "done"
)

// Terminal names how a call ended. Exactly one terminal condition fires
// per call; once set, the machine accepts no further events.
type Terminal string

const (
	TerminalNone     Terminal = ""
	TerminalClosed   Terminal = "closed"
	TerminalFlagged  Terminal = "flagged"
	TerminalBounced  Terminal = "bounced"
	TerminalTimedOut Terminal = "timed_out"
)

// State is the mutable record of one call. Created at call start, mutated
// only by Machine.Step, and frozen the instant a terminal condition fires.
type State struct {
	Customer model.Customer
	Agent    model.Agent

	Turn        int
	Frustration float64 // bounded [0, max]; only grows within a call
	Sentiment   model.Sentiment
	Confidence  model.Confidence
	Transcript  []model.TranscriptLine

	CloseAttempted   bool
	ClosePitch       string
	FlagUsed         bool
	FlagReason       string
	CustomerBounced  bool
	ConvertedOnClose bool

	Phase    Phase
	Terminal Terminal

	// Latest agent exchange, kept for the assessment calls.
	lastAgentRaw     string
	lastAgentDisplay string
}

// Resolution is the scored result of a finished call.
type Resolution struct {
	Outcome           model.Outcome
	Points            int
	Converted         bool
	MotivationGuess   model.Motivation
	MotivationCorrect bool
}

// Resolve derives the outcome and score from a terminal state. The outcome
// is always recomputed from the state plus the fraud ground truth.
func (s *State) Resolve(rules config.Game, policy config.ClosePolicy) Resolution {
	var (
		guess     model.Motivation
		matched   bool
		converted bool
	)

	if s.CloseAttempted && !s.Customer.IsFraud {
		guess = s.Confidence.MotivationGuess.Dominant()
		matched = guess == s.Customer.Motivation

		switch policy {
		case config.ClosePolicyConfirm:
			converted = s.ConvertedOnClose
		default:
			converted = WillConvert(s.Sentiment, matched, s.Customer.IsFraud)
		}
	}

	outcome := DetermineOutcome(s.CloseAttempted, s.FlagUsed, s.Customer.IsFraud, converted, s.CustomerBounced)
	correct := guess != "" && matched

	return Resolution{
		Outcome:           outcome,
		Points:            Score(s.Customer.Tier, outcome, correct, rules.MotivationBonus),
		Converted:         converted,
		MotivationGuess:   guess,
		MotivationCorrect: correct,
	}
}

// FallbackResolution is the best-effort result used when a call errors
// mid-flight: neutral values, scored as a timeout so the client still sees
// a plausible conclusion.
func (s *State) FallbackResolution(rules config.Game) Resolution {
	outcome := DetermineOutcome(false, false, s.Customer.IsFraud, false, false)
	return Resolution{
		Outcome: outcome,
		Points:  Score(s.Customer.Tier, outcome, false, rules.MotivationBonus),
	}
}

func (s *State) appendLine(speaker model.Speaker, text string, turn int) model.TranscriptLine {
	line := model.TranscriptLine{Speaker: speaker, Text: text, Turn: turn}
	s.Transcript = append(s.Transcript, line)
	return line
}

// Greeting returns the scripted line the agent answers the phone with.
func Greeting(agent model.Agent) string {
	return fmt.Sprintf("Hi, thanks for calling TechMobile Android support! This is %s. How can I help you today?", agent.Name)
}
