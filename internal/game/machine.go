package game

import (
	"fmt"
	"strings"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/model"
)

// Event is an input to the machine: the authoritative result of an effect
// the orchestrator executed against a collaborator.
type Event interface{ isEvent() }

// StartEvent begins the call: scripted greeting and opening statement.
type StartEvent struct{}

// AgentRepliedEvent carries the agent persona's raw response for the
// current turn, control tags included.
type AgentRepliedEvent struct{ Text string }

// CustomerRepliedEvent carries the customer persona's response.
type CustomerRepliedEvent struct{ Text string }

// CloseAnsweredEvent carries the customer's final yes/no answer to a close
// attempt (confirm policy only).
type CloseAnsweredEvent struct{ Text string }

// AssessedEvent carries the joined results of the two concurrent
// assessment calls.
type AssessedEvent struct {
	Confidence model.Confidence
	Sentiment  model.Sentiment
}

func (StartEvent) isEvent()           {}
func (AgentRepliedEvent) isEvent()    {}
func (CustomerRepliedEvent) isEvent() {}
func (CloseAnsweredEvent) isEvent()   {}
func (AssessedEvent) isEvent()        {}

// Effect is a command the orchestrator must execute. The machine itself
// never performs I/O; it only records state and emits effects.
type Effect interface{ isEffect() }

// SayEffect pushes a transcript line (already recorded) to the client.
type SayEffect struct {
	Line     model.TranscriptLine
	IsBounce bool
}

// SystemEffect pushes a call-ending system notice.
type SystemEffect struct {
	Text string
	Turn int
}

// AgentTurnEffect asks the orchestrator to invoke the agent persona for
// the given turn and feed back AgentRepliedEvent.
type AgentTurnEffect struct{ Turn int }

// CustomerTurnEffect asks the orchestrator to invoke the customer persona
// with the agent's latest raw message. When Final is set the reply answers
// a close attempt and must be fed back as CloseAnsweredEvent.
type CustomerTurnEffect struct {
	AgentText string
	Final     bool
}

// AssessEffect asks the orchestrator to run the fraud-confidence and
// sentiment assessments concurrently on the latest exchange and feed back
// a single AssessedEvent once both complete.
type AssessEffect struct {
	AgentText    string
	CustomerText string
}

// DashboardEffect pushes a dashboard update with the freshly computed
// alignment for the turn just assessed; confidence, sentiment, and
// frustration are read from state.
type DashboardEffect struct {
	Turn      int
	Alignment Alignment
}

// FinalizeEffect signals that a terminal condition fired: resolve the
// outcome and run the post-call pipeline.
type FinalizeEffect struct{}

func (SayEffect) isEffect()          {}
func (SystemEffect) isEffect()       {}
func (AgentTurnEffect) isEffect()    {}
func (CustomerTurnEffect) isEffect() {}
func (AssessEffect) isEffect()       {}
func (DashboardEffect) isEffect()    {}
func (FinalizeEffect) isEffect()     {}

// Machine drives one call through its turn loop. It owns the State and
// steps it forward in response to events, returning the effects the
// orchestrator must execute next.
type Machine struct {
	state *State
	rules config.Game
}

// NewMachine creates a machine for a freshly generated customer/agent pair.
func NewMachine(customer model.Customer, agent model.Agent, rules config.Game) *Machine {
	return &Machine{
		state: &State{
			Customer:  customer,
			Agent:     agent,
			Sentiment: model.NeutralSentiment(),
			Phase:     PhaseGreeting,
		},
		rules: rules,
	}
}

// State exposes the call state for the orchestrator and for resolution.
func (m *Machine) State() *State { return m.state }

// Done reports whether a terminal condition has fired.
func (m *Machine) Done() bool { return m.state.Terminal != TerminalNone }

// Step advances the machine with one event and returns the effects to
// execute. Events that do not match the current phase are rejected.
func (m *Machine) Step(ev Event) ([]Effect, error) {
	s := m.state
	if s.Terminal != TerminalNone {
		return nil, fmt.Errorf("game: step after terminal state %q", s.Terminal)
	}

	switch ev := ev.(type) {
	case StartEvent:
		if s.Phase != PhaseGreeting {
			return nil, phaseErr(s.Phase, ev)
		}
		return m.start(), nil

	case AgentRepliedEvent:
		if s.Phase != PhaseAwaitAgent {
			return nil, phaseErr(s.Phase, ev)
		}
		return m.agentReplied(ev.Text), nil

	case CustomerRepliedEvent:
		if s.Phase != PhaseAwaitCustomer {
			return nil, phaseErr(s.Phase, ev)
		}
		return m.customerReplied(ev.Text), nil

	case CloseAnsweredEvent:
		if s.Phase != PhaseAwaitCloseAnswer {
			return nil, phaseErr(s.Phase, ev)
		}
		return m.closeAnswered(ev.Text), nil

	case AssessedEvent:
		if s.Phase != PhaseAwaitAssessments {
			return nil, phaseErr(s.Phase, ev)
		}
		return m.assessed(ev), nil

	default:
		return nil, fmt.Errorf("game: unknown event %T", ev)
	}
}

// start emits the scripted greeting and the customer's opening statement
// as turn 0, which does not count against the turn budget.
func (m *Machine) start() []Effect {
	s := m.state

	greeting := s.appendLine(model.SpeakerAgent, Greeting(s.Agent), 0)
	opening := s.appendLine(model.SpeakerCustomer, s.Customer.CallReason, 0)

	s.Turn = 1
	s.Phase = PhaseAwaitAgent

	return []Effect{
		SayEffect{Line: greeting},
		SayEffect{Line: opening},
		AgentTurnEffect{Turn: s.Turn},
	}
}

func (m *Machine) agentReplied(raw string) []Effect {
	s := m.state

	pitch, closed := ParseCloseTag(raw)
	reason, flagged := ParseFlagTag(raw)

	display := StripTags(raw)
	s.lastAgentRaw = raw
	s.lastAgentDisplay = display

	line := s.appendLine(model.SpeakerAgent, display, s.Turn)
	effects := []Effect{SayEffect{Line: line}}

	if flagged {
		s.FlagUsed = true
		s.FlagReason = reason
		s.Terminal = TerminalFlagged
		s.Phase = PhaseDone
		return append(effects,
			SystemEffect{Text: "[Call ended - Agent flagged for fraud]", Turn: s.Turn},
			FinalizeEffect{},
		)
	}

	if closed {
		s.CloseAttempted = true
		s.ClosePitch = pitch

		if m.rules.ClosePolicy == config.ClosePolicyConfirm {
			// The customer gets one final turn to answer the close.
			s.Phase = PhaseAwaitCloseAnswer
			return append(effects, CustomerTurnEffect{AgentText: raw, Final: true})
		}

		s.Terminal = TerminalClosed
		s.Phase = PhaseDone
		return append(effects,
			SystemEffect{Text: "[Call ended - Agent closed the sale]", Turn: s.Turn},
			FinalizeEffect{},
		)
	}

	s.Phase = PhaseAwaitCustomer
	return append(effects, CustomerTurnEffect{AgentText: raw})
}

func (m *Machine) customerReplied(text string) []Effect {
	s := m.state

	line := s.appendLine(model.SpeakerCustomer, text, s.Turn)
	s.Phase = PhaseAwaitAssessments

	return []Effect{
		SayEffect{Line: line},
		AssessEffect{AgentText: s.lastAgentDisplay, CustomerText: text},
	}
}

func (m *Machine) closeAnswered(text string) []Effect {
	s := m.state

	line := s.appendLine(model.SpeakerCustomer, text, s.Turn)
	s.ConvertedOnClose = isAffirmative(text) && !s.Customer.IsFraud
	s.Terminal = TerminalClosed
	s.Phase = PhaseDone

	return []Effect{
		SayEffect{Line: line},
		SystemEffect{Text: "[Call ended - Agent closed the sale]", Turn: s.Turn},
		FinalizeEffect{},
	}
}

func (m *Machine) assessed(ev AssessedEvent) []Effect {
	s := m.state

	s.Confidence = ev.Confidence
	s.Sentiment = ev.Sentiment

	alignment := AssessAlignment(s.lastAgentRaw, s.Customer.Motivation)
	increase := FrustrationIncrease(s.lastAgentRaw, s.Customer.Motivation, alignment)
	s.Frustration += increase
	if s.Frustration > m.rules.MaxFrustration {
		s.Frustration = m.rules.MaxFrustration
	}

	effects := []Effect{DashboardEffect{Turn: s.Turn, Alignment: alignment}}

	if CheckBounce(s, m.rules) {
		s.CustomerBounced = true
		line := s.appendLine(model.SpeakerCustomer, BounceMessage(s.Customer.Motivation), s.Turn)
		s.Terminal = TerminalBounced
		s.Phase = PhaseDone
		return append(effects,
			SayEffect{Line: line, IsBounce: true},
			SystemEffect{Text: "[Call ended - Customer hung up]", Turn: s.Turn},
			FinalizeEffect{},
		)
	}

	if s.Turn >= m.rules.MaxTurns {
		s.Terminal = TerminalTimedOut
		s.Phase = PhaseDone
		return append(effects,
			SystemEffect{Text: "[Call ended - Maximum turns reached]", Turn: s.Turn},
			FinalizeEffect{},
		)
	}

	s.Turn++
	s.Phase = PhaseAwaitAgent
	return append(effects, AgentTurnEffect{Turn: s.Turn})
}

// isAffirmative detects an explicit yes in the customer's answer to a
// close attempt.
func isAffirmative(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range []string{"yes", "sure", "let's do it", "go ahead", "sounds good", "sign me up"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func phaseErr(phase Phase, ev Event) error {
	return fmt.Errorf("game: event %T not valid in phase %q", ev, phase)
}
