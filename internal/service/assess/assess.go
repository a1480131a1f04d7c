// Package assess runs the per-turn dashboard analyses: a fraud-confidence
// and motivation read, and a customer sentiment read. Both call the
// completion provider with a JSON-only prompt and fall back to fixed
// neutral defaults when the service fails or returns unparseable output —
// assessment failures are never surfaced to the player.
package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/service/completion"
)

const confidencePromptFmt = `Analyze this exchange between a customer service agent and a caller.

Last exchange:
Agent: %s
Caller: %s

Based on this exchange, assess:
1. Fraud likelihood (1-10, where 10 = definitely fraud)
2. Customer motivation type (head/heart/hand percentages that sum to 100)
3. Brief reasoning (one sentence)

Respond in JSON format only:
{
    "fraud_likelihood": <1-10>,
    "motivation_guess": {
        "head": <0-100>,
        "heart": <0-100>,
        "hand": <0-100>
    },
    "reasoning": "<one sentence>"
}`

const sentimentPromptFmt = `Analyze the customer's emotional state from this exchange.

Last exchange:
Agent: %s
Caller: %s

Rate the customer's current state (1-10 for each):
- satisfaction: How happy are they with this interaction?
- trust: How much do they trust the agent?
- urgency: How urgently do they want to resolve this?
- frustration: How frustrated are they?
- likelihood_to_convert: How likely to actually switch to Android?
- emotional_tone: One word describing their mood

Respond in JSON format only:
{
    "satisfaction": <1-10>,
    "trust": <1-10>,
    "urgency": <1-10>,
    "frustration": <1-10>,
    "likelihood_to_convert": <1-10>,
    "emotional_tone": "<one word>"
}`

// Client runs assessment prompts against a completion provider.
type Client struct {
	provider completion.Provider
	logger   *slog.Logger
}

// NewClient creates an assessment client.
func NewClient(provider completion.Provider, logger *slog.Logger) *Client {
	return &Client{provider: provider, logger: logger}
}

// Confidence assesses fraud likelihood and motivation from the latest
// exchange. Never returns an error: failures yield neutral defaults.
func (c *Client) Confidence(ctx context.Context, agentMsg, callerMsg string) model.Confidence {
	prompt := fmt.Sprintf(confidencePromptFmt, agentMsg, callerMsg)

	text, err := c.provider.Complete(ctx, "", []completion.Message{
		{Role: completion.RoleUser, Content: prompt},
	}, 150)
	if err != nil {
		c.logger.Warn("assess: confidence call failed, using defaults", "error", err)
		return model.NeutralConfidence()
	}

	var result model.Confidence
	if err := decodeJSON(text, &result); err != nil {
		c.logger.Warn("assess: confidence parse failed, using defaults", "error", err)
		return model.NeutralConfidence()
	}

	// Patch missing fields with neutral values.
	neutral := model.NeutralConfidence()
	if result.FraudLikelihood == 0 {
		result.FraudLikelihood = neutral.FraudLikelihood
	}
	if result.MotivationGuess == (model.MotivationGuess{}) {
		result.MotivationGuess = neutral.MotivationGuess
	}
	if result.Reasoning == "" {
		result.Reasoning = neutral.Reasoning
	}
	return result
}

// Sentiment assesses the customer's emotional state from the latest
// exchange. Never returns an error: failures yield neutral defaults.
func (c *Client) Sentiment(ctx context.Context, agentMsg, callerMsg string) model.Sentiment {
	prompt := fmt.Sprintf(sentimentPromptFmt, agentMsg, callerMsg)

	text, err := c.provider.Complete(ctx, "", []completion.Message{
		{Role: completion.RoleUser, Content: prompt},
	}, 100)
	if err != nil {
		c.logger.Warn("assess: sentiment call failed, using defaults", "error", err)
		return model.NeutralSentiment()
	}

	var result model.Sentiment
	if err := decodeJSON(text, &result); err != nil {
		c.logger.Warn("assess: sentiment parse failed, using defaults", "error", err)
		return model.NeutralSentiment()
	}

	neutral := model.NeutralSentiment()
	if result.Satisfaction == 0 {
		result.Satisfaction = neutral.Satisfaction
	}
	if result.Trust == 0 {
		result.Trust = neutral.Trust
	}
	if result.Urgency == 0 {
		result.Urgency = neutral.Urgency
	}
	if result.Frustration == 0 {
		result.Frustration = neutral.Frustration
	}
	if result.LikelihoodToConvert == 0 {
		result.LikelihoodToConvert = neutral.LikelihoodToConvert
	}
	if result.EmotionalTone == "" {
		result.EmotionalTone = neutral.EmotionalTone
	}
	return result
}

// Learning asks for a single short pattern distilled from a finished call.
// Returns a fallback line on any failure so the post-call pipeline never
// blocks on it.
func (c *Client) Learning(ctx context.Context, prompt string) string {
	text, err := c.provider.Complete(ctx, "", []completion.Message{
		{Role: completion.RoleUser, Content: prompt},
	}, 50)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			c.logger.Warn("assess: learning call failed, using fallback", "error", err)
		}
		return "Call completed - learning pending"
	}

	text = strings.Trim(strings.TrimSpace(text), `"'`)
	if len(text) > 100 {
		text = text[:97] + "..."
	}
	return text
}

// decodeJSON parses a JSON object from model output, tolerating markdown
// code fences around the payload.
func decodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		parts := strings.SplitN(text, "```", 3)
		if len(parts) >= 2 {
			text = parts[1]
		}
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSpace(text)
	}
	return json.Unmarshal([]byte(text), v)
}
