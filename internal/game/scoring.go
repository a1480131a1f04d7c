package game

import "github.com/chad-murphy-data/android-converter/internal/model"

// pointsMatrix maps (tier, outcome) to points. Magnitudes scale steeply
// with tier: big legitimate deals pay well, but missed high-tier fraud
// costs far more than catching it earns.
var pointsMatrix = map[model.Tier]map[model.Outcome]int{
	model.TierSingle: {
		model.OutcomeConversion:  1,
		model.OutcomeMissedOpp:   -1,
		model.OutcomeFraudCaught: 2,
		model.OutcomeFraudMissed: -5,
	},
	model.TierTenPack: {
		model.OutcomeConversion:  5,
		model.OutcomeMissedOpp:   -3,
		model.OutcomeFraudCaught: 5,
		model.OutcomeFraudMissed: -15,
	},
	model.TierFiftyPack: {
		model.OutcomeConversion:  20,
		model.OutcomeMissedOpp:   -10,
		model.OutcomeFraudCaught: 10,
		model.OutcomeFraudMissed: -50,
	},
}

// DetermineOutcome resolves a terminal call state into an outcome,
// evaluated in strict priority order: bounce, then flag, then close,
// then turn-limit default.
//
// A fraud customer who bounces counts as fraud caught: they left without
// getting what they came for. A legitimate customer who bounces is a
// missed opportunity.
func DetermineOutcome(closeAttempted, flagUsed, isFraud, converted, customerBounced bool) model.Outcome {
	if customerBounced {
		if isFraud {
			return model.OutcomeFraudCaught
		}
		return model.OutcomeMissedOpp
	}

	if flagUsed {
		if isFraud {
			return model.OutcomeFraudCaught
		}
		// Wrongly flagged a legitimate customer.
		return model.OutcomeMissedOpp
	}

	if closeAttempted {
		if isFraud {
			return model.OutcomeFraudMissed
		}
		if converted {
			return model.OutcomeConversion
		}
		return model.OutcomeMissedOpp
	}

	// Neither close nor flag before the turn ceiling.
	if isFraud {
		return model.OutcomeFraudCaught
	}
	return model.OutcomeMissedOpp
}

// Score looks up the points for (tier, outcome) and adds the flat bonus
// when the agent's dominant motivation guess was correct.
func Score(tier model.Tier, outcome model.Outcome, motivationCorrect bool, motivationBonus int) int {
	points := pointsMatrix[tier][outcome]
	if motivationCorrect {
		points += motivationBonus
	}
	return points
}
