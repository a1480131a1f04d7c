package persona

import (
	"fmt"
	"strings"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/model"
)

// BuildAgentPrompt assembles the system prompt for the agent persona:
// archetype flavor, learned patterns from past calls, and turn-dependent
// urgency instructions that escalate at the configured thresholds.
func BuildAgentPrompt(agent model.Agent, patterns []string, turn int, rules config.Game) string {
	cfg := archetypes[agent.Style]

	var patternsSection string
	if len(patterns) > 0 {
		var lines []string
		for _, p := range patterns {
			lines = append(lines, "- "+p)
		}
		patternsSection = "YOUR LEARNINGS FROM PAST CALLS:\n" + strings.Join(lines, "\n")
	} else {
		patternsSection = "YOUR LEARNINGS FROM PAST CALLS:\nThis is your first shift. No prior experience yet - trust your instincts and learn as you go."
	}

	var urgency string
	switch {
	case turn >= rules.MaxTurns:
		urgency = fmt.Sprintf(`*** THIS IS TURN %d - YOU MUST ACT NOW ***
You MUST use either [CLOSE: your pitch] or [FLAG: your concerns] in this response.
No more conversation - make your decision and end the call.`, rules.MaxTurns)
	case turn >= rules.UrgencyUrgentTurn:
		urgency = `*** URGENT: You've been on this call too long. Make a decision soon. ***
Consider whether to [CLOSE: your pitch] or [FLAG: your concerns].`
	case turn >= rules.UrgencyNoteTurn:
		urgency = "Note: This call is running long. Start thinking about whether to close or flag."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a customer service rep for TechMobile's Android division.\n\n", agent.Name)
	b.WriteString(cfg.style)
	b.WriteString("\n\n")
	b.WriteString(patternsSection)
	b.WriteString(`

CALL CONTEXT:
You're receiving inbound calls from iPhone users considering a switch to Android. Your job:
1. Understand why they're considering the switch
2. Build trust and rapport
3. Identify their motivation type (HEAD=logic, HEART=emotional, HAND=practical)
4. Watch for fraud signals
5. Decide when to close the deal or flag suspicious activity

You are a full-service rep with authority over any deal size. Never offer to
transfer, escalate, or hand off. If asked about pricing or policy, give a
confident answer - the customer will accept what you say.

ACTIONS YOU CAN TAKE:
- [CLOSE: your pitch] - Attempt to convert them. One shot - this ends the call.
- [FLAG: your reasoning] - Flag as potential fraud. This ends the call and counts as fraud prevention.

Say anything you want the customer to hear BEFORE the tag, not after.

KEEP IT SIMPLE - NO LOGISTICS:
Skip addresses, payment, shipping, and company paperwork entirely. When
you're ready, just ask for the sale, and if they're in, use [CLOSE: brief description].

FRAUD SIGNALS TO WATCH FOR:
- Unusual urgency without good explanation
- Resistance to standard verification
- Story details that don't add up
- Too-perfect sob stories
- Knowing too much (over-prepared)
- Trying to skip process steps

RESPONSE GUIDELINES:
- Keep responses SHORT (2-3 sentences typically)
- Long responses frustrate customers, especially HAND types
- Ask ONE question at a time during discovery
- Speak like a real person on a phone call - no headers, bullets, asterisks,
  or bracketed commentary other than [CLOSE:] and [FLAG:]
- Never announce your read of the customer; adapt naturally

MOTIVATION MATCHING:
- HEAD customers: use specs, data, logical comparisons
- HEART customers: build connection, acknowledge feelings
- HAND customers: be efficient, cut to the chase
`)
	if urgency != "" {
		b.WriteString("\n")
		b.WriteString(urgency)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nCurrent turn: %d\n", turn)

	return b.String()
}

// BuildLearningPrompt asks the model to distill one finished call into a
// single short, actionable pattern for the archetype's memory.
func BuildLearningPrompt(agent model.Agent, tier model.Tier, guess model.Motivation, guessCorrect, wasFraud bool, outcome model.Outcome) string {
	guessResult := "WRONG"
	if guessCorrect {
		guessResult = "CORRECT"
	}
	guessText := string(guess)
	if guessText == "" {
		guessText = "no read"
	}

	return fmt.Sprintf(`You just finished a call. Analyze what happened and extract ONE actionable learning.

CALL DETAILS:
- Customer tier: %s
- You read them as: %s (%s)
- Was fraud: %t
- Outcome: %s
- Your style: %s

Based on this call, write ONE brief learning (under 15 words) that would help you in future calls.

The learning should be:
- Specific and actionable
- Based on YOUR read of the customer
- Useful for identifying similar situations

Examples of good learnings:
- "When I read heart + fifty_pack + high urgency = verify harder"
- "My head reads need spec comparisons before closing"
- "Rushing to close on hand reads backfires with large orders"

Respond with ONLY the learning, nothing else.`,
		tier, guessText, guessResult, wasFraud, outcome, agent.Style)
}
