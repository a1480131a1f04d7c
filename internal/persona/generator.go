// Package persona generates customer and agent profiles and builds the
// system prompts for both LLM personas. Prompt text is kept as lookup data
// keyed by enums so the orchestrator never depends on literal templates.
package persona

import (
	"math/rand"

	"github.com/chad-murphy-data/android-converter/internal/model"
)

var customerNames = []string{
	"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Quinn", "Avery",
	"Skylar", "Dakota", "Reese", "Finley", "Rowan", "Sage", "Blair", "Drew",
	"Cameron", "Hayden", "Kendall", "Logan", "Parker", "Peyton", "Sydney", "Jamie",
	"Diana", "Marcus", "Elena", "David", "Priya", "James", "Sofia", "Michael",
	"Aisha", "Robert", "Chen", "Patricia", "Kenji", "Linda", "Fatima", "William",
	"Maria", "Thomas", "Yuki", "Jennifer", "Ahmed", "Lisa", "Omar", "Sarah",
	"Raj", "Michelle", "Wei", "Karen", "Dmitri", "Emily", "Carlos", "Amanda",
}

var agentNames = []string{
	"Riley", "Jordan", "Casey", "Morgan", "Alex", "Taylor", "Quinn", "Avery",
	"Cameron", "Drew", "Blake", "Reese", "Skylar", "Jamie", "Kendall", "Logan",
}

// patienceByMotivation derives the patience score deterministically from
// the motivation type.
var patienceByMotivation = map[model.Motivation]int{
	model.MotivationHead:  8, // wants thorough info
	model.MotivationHeart: 5,
	model.MotivationHand:  3, // wants speed
}

// Generator draws random customer and agent profiles. The random source is
// injected so scenario tests are deterministic.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator backed by the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Customer draws a random customer profile. fraudRate is the probability
// the customer is a fraudster (the caller picks the warmup or normal rate).
func (g *Generator) Customer(fraudRate float64) model.Customer {
	name := customerNames[g.rng.Intn(len(customerNames))]
	tier := model.Tiers[g.rng.Intn(len(model.Tiers))]
	motivation := model.Motivations[g.rng.Intn(len(model.Motivations))]
	isFraud := g.rng.Float64() < fraudRate

	reasons := legitReasons[tier]
	if isFraud {
		reasons = fraudReasons[tier]
	}

	return model.Customer{
		Name:       name,
		Tier:       tier,
		Motivation: motivation,
		IsFraud:    isFraud,
		CallReason: reasons[g.rng.Intn(len(reasons))],
		Patience:   patienceByMotivation[motivation],
	}
}

// Agent draws a random agent profile with a random archetype.
func (g *Generator) Agent() model.Agent {
	return model.Agent{
		Name:  agentNames[g.rng.Intn(len(agentNames))],
		Style: model.Archetypes[g.rng.Intn(len(model.Archetypes))],
	}
}
