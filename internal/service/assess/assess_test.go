package assess

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/service/completion"
)

type cannedProvider struct {
	text string
	err  error
}

func (p cannedProvider) Complete(context.Context, string, []completion.Message, int) (string, error) {
	return p.text, p.err
}

func testClient(p completion.Provider) *Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewClient(p, logger)
}

func TestConfidenceParsesWellFormedJSON(t *testing.T) {
	c := testClient(cannedProvider{text: `{
		"fraud_likelihood": 8,
		"motivation_guess": {"head": 70, "heart": 20, "hand": 10},
		"reasoning": "asks for specs constantly"
	}`})

	got := c.Confidence(context.Background(), "agent line", "caller line")
	assert.Equal(t, 8, got.FraudLikelihood)
	assert.Equal(t, 70, got.MotivationGuess.Head)
	assert.Equal(t, "asks for specs constantly", got.Reasoning)
}

func TestConfidenceToleratesCodeFences(t *testing.T) {
	c := testClient(cannedProvider{text: "```json\n{\"fraud_likelihood\": 3, \"motivation_guess\": {\"head\": 10, \"heart\": 80, \"hand\": 10}, \"reasoning\": \"warm tone\"}\n```"})

	got := c.Confidence(context.Background(), "a", "b")
	assert.Equal(t, 3, got.FraudLikelihood)
	assert.Equal(t, 80, got.MotivationGuess.Heart)
}

func TestConfidenceFallsBackOnError(t *testing.T) {
	c := testClient(cannedProvider{err: errors.New("timeout")})
	assert.Equal(t, model.NeutralConfidence(), c.Confidence(context.Background(), "a", "b"))
}

func TestConfidenceFallsBackOnGarbage(t *testing.T) {
	c := testClient(cannedProvider{text: "I think they're probably fine?"})
	assert.Equal(t, model.NeutralConfidence(), c.Confidence(context.Background(), "a", "b"))
}

func TestConfidencePatchesMissingFields(t *testing.T) {
	c := testClient(cannedProvider{text: `{"fraud_likelihood": 6}`})

	got := c.Confidence(context.Background(), "a", "b")
	assert.Equal(t, 6, got.FraudLikelihood)
	// Unfilled fields take neutral values.
	assert.Equal(t, model.NeutralConfidence().MotivationGuess, got.MotivationGuess)
	assert.Equal(t, model.NeutralConfidence().Reasoning, got.Reasoning)
}

func TestSentimentParsesAndPatches(t *testing.T) {
	c := testClient(cannedProvider{text: `{"satisfaction": 9, "frustration": 2}`})

	got := c.Sentiment(context.Background(), "a", "b")
	assert.Equal(t, 9, got.Satisfaction)
	assert.Equal(t, 2, got.Frustration)
	assert.Equal(t, model.NeutralSentiment().Trust, got.Trust)
	assert.Equal(t, model.NeutralSentiment().EmotionalTone, got.EmotionalTone)
}

func TestSentimentFallsBackOnError(t *testing.T) {
	c := testClient(cannedProvider{err: errors.New("down")})
	assert.Equal(t, model.NeutralSentiment(), c.Sentiment(context.Background(), "a", "b"))
}

func TestLearning(t *testing.T) {
	c := testClient(cannedProvider{text: `  "Verify harder on urgent fifty packs"  `})
	assert.Equal(t, "Verify harder on urgent fifty packs", c.Learning(context.Background(), "prompt"))
}

func TestLearningFallbackOnError(t *testing.T) {
	c := testClient(cannedProvider{err: errors.New("down")})
	assert.Equal(t, "Call completed - learning pending", c.Learning(context.Background(), "prompt"))

	c = testClient(cannedProvider{text: "   "})
	assert.Equal(t, "Call completed - learning pending", c.Learning(context.Background(), "prompt"))
}

func TestLearningTruncatesLongOutput(t *testing.T) {
	c := testClient(cannedProvider{text: strings.Repeat("x", 300)})
	got := c.Learning(context.Background(), "prompt")
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, "..."))
}
