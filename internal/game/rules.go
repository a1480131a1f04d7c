package game

import (
	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/model"
)

// CheckBounce decides whether the customer hangs up out of frustration.
//
// Nobody bounces before the minimum turn floor. Past the floor, the
// externally-assessed sentiment frustration acts as a gate: the internal
// heuristic alone can never end a call. When the gate passes, the
// effective frustration is the max of the tracked and assessed values.
// Hand customers get an earlier, lower threshold.
func CheckBounce(state *State, rules config.Game) bool {
	if state.Turn < rules.MinBounceTurn {
		return false
	}

	sentimentFrustration := state.Sentiment.Frustration
	if sentimentFrustration < rules.SentimentBounceGate {
		return false
	}

	effective := state.Frustration
	if f := float64(sentimentFrustration); f > effective {
		effective = f
	}

	if effective >= rules.BounceThreshold {
		return true
	}

	if state.Customer.Motivation == model.MotivationHand &&
		state.Turn >= rules.HandEarlyBounceTurn &&
		effective >= rules.HandEarlyBounceScore {
		return true
	}

	return false
}

// WillConvert decides whether a close attempt succeeds. Fraud customers
// never legitimately convert. A correct motivation read lowers the bar.
func WillConvert(sentiment model.Sentiment, matchedMotivation, isFraud bool) bool {
	if isFraud {
		return false
	}

	if sentiment.Frustration > 7 {
		return false
	}

	if matchedMotivation {
		return sentiment.Satisfaction >= 4 && sentiment.LikelihoodToConvert >= 4
	}
	return sentiment.Satisfaction >= 7 && sentiment.LikelihoodToConvert >= 6
}

// BounceMessage returns the canned hang-up line for a customer motivation.
func BounceMessage(motivation model.Motivation) string {
	switch motivation {
	case model.MotivationHead:
		return "You know what, I don't think this is going anywhere. Thanks for your time, but I'll do my own research."
	case model.MotivationHeart:
		return "I... I don't think this is right for me. Thank you, but I need to go."
	case model.MotivationHand:
		return "Look, I gotta go. This is taking too long. *click*"
	}
	return "I have to go. Goodbye."
}
