package game

import (
	"strings"

	"github.com/chad-murphy-data/android-converter/internal/model"
)

// Alignment grades how well an agent response matched the customer's
// motivation type.
type Alignment string

const (
	AlignmentMatched    Alignment = "matched"
	AlignmentNeutral    Alignment = "neutral"
	AlignmentMisaligned Alignment = "misaligned"
)

// Lexical signal sets. Head customers respond to data and logic, heart
// customers to connection. Hand customers are judged on brevity alone.
var (
	headSignals = []string{
		"spec", "compare", "percent", "price", "cost", "data", "feature",
		"performance", "benchmark", "value", "roi", "savings",
	}
	heartSignals = []string{
		"understand", "feel", "appreciate", "journey", "story", "together",
		"care", "help", "support", "experience", "community",
	}
)

// baseFrustrationPerTurn is the per-motivation frustration floor added
// every turn regardless of response quality.
var baseFrustrationPerTurn = map[model.Motivation]float64{
	model.MotivationHead:  0.3,
	model.MotivationHeart: 0.5,
	model.MotivationHand:  1.0,
}

// AssessAlignment heuristically scores an agent response against the
// customer's motivation type.
func AssessAlignment(agentResponse string, motivation model.Motivation) Alignment {
	wordCount := len(strings.Fields(agentResponse))
	lower := strings.ToLower(agentResponse)

	headScore := countSignals(lower, headSignals)
	heartScore := countSignals(lower, heartSignals)

	switch motivation {
	case model.MotivationHead:
		if headScore >= 2 {
			return AlignmentMatched
		}
		if heartScore >= 2 {
			return AlignmentMisaligned
		}
		return AlignmentNeutral

	case model.MotivationHeart:
		if heartScore >= 2 {
			return AlignmentMatched
		}
		if wordCount < 30 { // too brief for heart customers
			return AlignmentMisaligned
		}
		return AlignmentNeutral

	default: // hand: length is the primary signal
		if wordCount <= 50 {
			return AlignmentMatched
		}
		if wordCount > 100 {
			return AlignmentMisaligned
		}
		return AlignmentNeutral
	}
}

// FrustrationIncrease computes the frustration added by one agent response.
// A verbosity penalty is scaled by an alignment modifier, amplified for
// hand customers, then added to the motivation's per-turn base. The caller
// clamps the accumulated total to the configured ceiling.
func FrustrationIncrease(agentResponse string, motivation model.Motivation, alignment Alignment) float64 {
	wordCount := len(strings.Fields(agentResponse))

	var lengthPenalty float64
	switch {
	case wordCount > 150:
		lengthPenalty = 2.0
	case wordCount > 100:
		lengthPenalty = 1.0
	case wordCount > 50:
		lengthPenalty = 0.5
	}

	modifier := 0.5
	switch alignment {
	case AlignmentMatched:
		modifier = 0.25
	case AlignmentMisaligned:
		modifier = 1.5
	}

	// Hand customers hate verbosity.
	if motivation == model.MotivationHand {
		modifier *= 1.5
	}

	base, ok := baseFrustrationPerTurn[motivation]
	if !ok {
		base = 0.5
	}

	return base + lengthPenalty*modifier
}

func countSignals(lower string, signals []string) int {
	n := 0
	for _, s := range signals {
		if strings.Contains(lower, s) {
			n++
		}
	}
	return n
}
