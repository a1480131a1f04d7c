package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/model"
)

func testCustomer(motivation model.Motivation, fraud bool) model.Customer {
	return model.Customer{
		Name:       "Jordan Reyes",
		Tier:       model.TierTenPack,
		Motivation: motivation,
		IsFraud:    fraud,
		CallReason: "My screen cracked and I'm done with it.",
		Patience:   5,
	}
}

func testAgent() model.Agent {
	return model.Agent{Name: "Sam", Style: model.ArchetypeCloser}
}

func calmAssessment() AssessedEvent {
	return AssessedEvent{
		Confidence: model.NeutralConfidence(),
		Sentiment:  model.NeutralSentiment(),
	}
}

func angryAssessment() AssessedEvent {
	return AssessedEvent{
		Confidence: model.NeutralConfidence(),
		Sentiment: model.Sentiment{
			Satisfaction: 2, Trust: 2, Urgency: 8,
			Frustration: 9, LikelihoodToConvert: 1, EmotionalTone: "angry",
		},
	}
}

func TestMachineStart(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())

	effects, err := m.Step(StartEvent{})
	require.NoError(t, err)
	require.Len(t, effects, 3)

	greeting, ok := effects[0].(SayEffect)
	require.True(t, ok)
	assert.Equal(t, model.SpeakerAgent, greeting.Line.Speaker)
	assert.Equal(t, 0, greeting.Line.Turn)
	assert.Contains(t, greeting.Line.Text, "Sam")

	opening, ok := effects[1].(SayEffect)
	require.True(t, ok)
	assert.Equal(t, model.SpeakerCustomer, opening.Line.Speaker)
	assert.Equal(t, "My screen cracked and I'm done with it.", opening.Line.Text)

	turn, ok := effects[2].(AgentTurnEffect)
	require.True(t, ok)
	assert.Equal(t, 1, turn.Turn)

	assert.Equal(t, PhaseAwaitAgent, m.State().Phase)
	assert.Len(t, m.State().Transcript, 2)
}

// step is a test helper that fails on any transition error.
func step(t *testing.T, m *Machine, ev Event) []Effect {
	t.Helper()
	effects, err := m.Step(ev)
	require.NoError(t, err)
	return effects
}

func TestMachineFullTurnCycle(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})

	effects := step(t, m, AgentRepliedEvent{Text: "What's driving the switch?"})
	require.Len(t, effects, 2)
	_, ok := effects[0].(SayEffect)
	require.True(t, ok)
	customerTurn, ok := effects[1].(CustomerTurnEffect)
	require.True(t, ok)
	assert.False(t, customerTurn.Final)

	effects = step(t, m, CustomerRepliedEvent{Text: "Battery life mostly."})
	require.Len(t, effects, 2)
	assess, ok := effects[1].(AssessEffect)
	require.True(t, ok)
	assert.Equal(t, "What's driving the switch?", assess.AgentText)
	assert.Equal(t, "Battery life mostly.", assess.CustomerText)

	effects = step(t, m, calmAssessment())
	require.Len(t, effects, 2)
	dash, ok := effects[0].(DashboardEffect)
	require.True(t, ok)
	assert.Equal(t, 1, dash.Turn)
	next, ok := effects[1].(AgentTurnEffect)
	require.True(t, ok)
	assert.Equal(t, 2, next.Turn)
	assert.Equal(t, 2, m.State().Turn)
	assert.False(t, m.Done())
}

func TestMachineCloseImmediate(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})

	effects := step(t, m, AgentRepliedEvent{Text: "You're ready. [CLOSE: switch today]"})
	require.Len(t, effects, 3)

	say, ok := effects[0].(SayEffect)
	require.True(t, ok)
	assert.Equal(t, "You're ready.", say.Line.Text)

	system, ok := effects[1].(SystemEffect)
	require.True(t, ok)
	assert.Contains(t, system.Text, "closed the sale")

	_, ok = effects[2].(FinalizeEffect)
	require.True(t, ok)

	st := m.State()
	assert.True(t, m.Done())
	assert.Equal(t, TerminalClosed, st.Terminal)
	assert.True(t, st.CloseAttempted)
	assert.Equal(t, "switch today", st.ClosePitch)
}

func TestMachineCloseConfirmPolicy(t *testing.T) {
	rules := config.DefaultGame()
	rules.ClosePolicy = config.ClosePolicyConfirm

	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), rules)
	step(t, m, StartEvent{})

	effects := step(t, m, AgentRepliedEvent{Text: "Ready? [CLOSE: let's switch]"})
	require.Len(t, effects, 2)
	customerTurn, ok := effects[1].(CustomerTurnEffect)
	require.True(t, ok)
	assert.True(t, customerTurn.Final)
	assert.False(t, m.Done())

	effects = step(t, m, CloseAnsweredEvent{Text: "Yes, let's do it!"})
	require.Len(t, effects, 3)
	assert.True(t, m.Done())
	assert.Equal(t, TerminalClosed, m.State().Terminal)
	assert.True(t, m.State().ConvertedOnClose)
}

func TestMachineCloseConfirmRefusal(t *testing.T) {
	rules := config.DefaultGame()
	rules.ClosePolicy = config.ClosePolicyConfirm

	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), rules)
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "[CLOSE: switch now]"})
	step(t, m, CloseAnsweredEvent{Text: "Hmm, I don't think so."})

	assert.False(t, m.State().ConvertedOnClose)
}

func TestMachineCloseConfirmFraudNeverConverts(t *testing.T) {
	rules := config.DefaultGame()
	rules.ClosePolicy = config.ClosePolicyConfirm

	m := NewMachine(testCustomer(model.MotivationHead, true), testAgent(), rules)
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "[CLOSE: deal]"})
	step(t, m, CloseAnsweredEvent{Text: "Yes! Absolutely, right now!"})

	assert.False(t, m.State().ConvertedOnClose)
}

func TestMachineFlag(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, true), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})

	effects := step(t, m, AgentRepliedEvent{Text: "I can't proceed. [FLAG: refuses verification]"})
	require.Len(t, effects, 3)

	st := m.State()
	assert.Equal(t, TerminalFlagged, st.Terminal)
	assert.True(t, st.FlagUsed)
	assert.Equal(t, "refuses verification", st.FlagReason)
}

func TestMachineBounce(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHeart, false), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})

	// Turns 1 and 2: angry sentiment but below the turn floor.
	for turn := 1; turn <= 2; turn++ {
		step(t, m, AgentRepliedEvent{Text: "Here are some thoughts."})
		step(t, m, CustomerRepliedEvent{Text: "Not helpful."})
		effects := step(t, m, angryAssessment())
		_, isAgentTurn := effects[len(effects)-1].(AgentTurnEffect)
		require.True(t, isAgentTurn, "turn %d must not bounce", turn)
	}

	// Turn 3: past the floor, the gate and threshold fire.
	step(t, m, AgentRepliedEvent{Text: "More thoughts."})
	step(t, m, CustomerRepliedEvent{Text: "Enough."})
	effects := step(t, m, angryAssessment())

	require.Len(t, effects, 4)
	bounceLine, ok := effects[1].(SayEffect)
	require.True(t, ok)
	assert.True(t, bounceLine.IsBounce)
	assert.Equal(t, BounceMessage(model.MotivationHeart), bounceLine.Line.Text)

	st := m.State()
	assert.Equal(t, TerminalBounced, st.Terminal)
	assert.True(t, st.CustomerBounced)
	assert.Equal(t, 3, st.Turn)
}

func TestMachineTimeout(t *testing.T) {
	rules := config.DefaultGame()
	rules.MaxTurns = 2

	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), rules)
	step(t, m, StartEvent{})

	step(t, m, AgentRepliedEvent{Text: "Turn one."})
	step(t, m, CustomerRepliedEvent{Text: "Okay."})
	step(t, m, calmAssessment())

	step(t, m, AgentRepliedEvent{Text: "Turn two."})
	step(t, m, CustomerRepliedEvent{Text: "Okay."})
	effects := step(t, m, calmAssessment())

	require.Len(t, effects, 3)
	system, ok := effects[1].(SystemEffect)
	require.True(t, ok)
	assert.Contains(t, system.Text, "Maximum turns")
	assert.Equal(t, TerminalTimedOut, m.State().Terminal)
}

func TestMachineFrustrationClamped(t *testing.T) {
	rules := config.DefaultGame()
	m := NewMachine(testCustomer(model.MotivationHand, false), testAgent(), rules)
	step(t, m, StartEvent{})

	// Hand + enormous responses accumulate frustration fast; the tracked
	// value must never exceed the ceiling. Calm external sentiment keeps the
	// bounce gate shut so the loop can run.
	long := words(200)
	for turn := 1; turn <= 4 && !m.Done(); turn++ {
		step(t, m, AgentRepliedEvent{Text: long})
		step(t, m, CustomerRepliedEvent{Text: "..."})
		step(t, m, AssessedEvent{
			Confidence: model.NeutralConfidence(),
			Sentiment:  model.Sentiment{Satisfaction: 5, Trust: 5, Urgency: 5, Frustration: 2, LikelihoodToConvert: 5, EmotionalTone: "flat"},
		})
		assert.LessOrEqual(t, m.State().Frustration, rules.MaxFrustration)
	}
}

func TestMachineRejectsOutOfPhaseEvents(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())

	_, err := m.Step(AgentRepliedEvent{Text: "early"})
	assert.Error(t, err)

	step(t, m, StartEvent{})
	_, err = m.Step(CustomerRepliedEvent{Text: "out of order"})
	assert.Error(t, err)

	_, err = m.Step(StartEvent{})
	assert.Error(t, err)
}

func TestMachineRejectsEventsAfterTerminal(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "[CLOSE: done]"})

	_, err := m.Step(AgentRepliedEvent{Text: "too late"})
	assert.Error(t, err)
}

func TestMachineTranscriptNeverHoldsTags(t *testing.T) {
	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), config.DefaultGame())
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "Great talk. [CLOSE: wrap it up]"})

	for _, line := range m.State().Transcript {
		assert.NotContains(t, line.Text, "[CLOSE:")
		assert.NotContains(t, line.Text, "[FLAG:")
	}
	// The raw pitch survives in state even though the transcript is clean.
	assert.Equal(t, "wrap it up", m.State().ClosePitch)
}

func TestResolveImmediatePolicy(t *testing.T) {
	rules := config.DefaultGame()

	m := NewMachine(testCustomer(model.MotivationHead, false), testAgent(), rules)
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "Opening question?"})
	step(t, m, CustomerRepliedEvent{Text: "Reasons."})
	step(t, m, AssessedEvent{
		Confidence: model.Confidence{
			FraudLikelihood: 2,
			MotivationGuess: model.MotivationGuess{Head: 80, Heart: 10, Hand: 10},
			Reasoning:       "spec questions",
		},
		Sentiment: model.Sentiment{Satisfaction: 8, Trust: 8, Urgency: 5, Frustration: 2, LikelihoodToConvert: 8, EmotionalTone: "upbeat"},
	})
	step(t, m, AgentRepliedEvent{Text: "[CLOSE: the numbers speak for themselves]"})

	res := m.State().Resolve(rules, rules.ClosePolicy)
	assert.Equal(t, model.OutcomeConversion, res.Outcome)
	assert.True(t, res.Converted)
	assert.Equal(t, model.MotivationHead, res.MotivationGuess)
	assert.True(t, res.MotivationCorrect)
	// ten_pack conversion plus the correct-guess bonus.
	assert.Equal(t, 5+rules.MotivationBonus, res.Points)
}

func TestResolveFraudCloseScoresNoGuess(t *testing.T) {
	rules := config.DefaultGame()

	m := NewMachine(testCustomer(model.MotivationHead, true), testAgent(), rules)
	step(t, m, StartEvent{})
	step(t, m, AgentRepliedEvent{Text: "[CLOSE: deal]"})

	res := m.State().Resolve(rules, rules.ClosePolicy)
	assert.Equal(t, model.OutcomeFraudMissed, res.Outcome)
	assert.False(t, res.Converted)
	assert.False(t, res.MotivationCorrect)
	assert.Equal(t, model.Motivation(""), res.MotivationGuess)
	assert.Equal(t, -15, res.Points)
}

func TestFallbackResolution(t *testing.T) {
	rules := config.DefaultGame()

	legit := &State{Customer: testCustomer(model.MotivationHead, false)}
	res := legit.FallbackResolution(rules)
	assert.Equal(t, model.OutcomeMissedOpp, res.Outcome)

	fraud := &State{Customer: testCustomer(model.MotivationHead, true)}
	res = fraud.FallbackResolution(rules)
	assert.Equal(t, model.OutcomeFraudCaught, res.Outcome)
}
