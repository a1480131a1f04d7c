// Package completion provides text generation for the two call personas
// and the assessment prompts.
//
// Defines a Provider interface with Anthropic and Gemini implementations.
// The interface allows swapping providers without changing consumers.
package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chad-murphy-data/android-converter/internal/config"
)

// Role tags a message in a conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in an ordered, role-tagged conversation history.
type Message struct {
	Role    Role
	Content string
}

// Provider generates text from a system prompt and a message history.
type Provider interface {
	// Complete returns generated text for the given system instructions
	// and ordered history. maxTokens bounds the output length.
	Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
}

// NewProvider selects a provider from configuration. "auto" picks the
// first provider with an API key configured and falls back to noop.
func NewProvider(cfg config.Config, logger *slog.Logger) (Provider, error) {
	switch cfg.CompletionProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("completion: anthropic provider requires ANTHROPIC_API_KEY")
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.CompletionTimeout), nil

	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("completion: gemini provider requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel)

	case "noop":
		return NoopProvider{}, nil

	default: // auto
		if cfg.AnthropicAPIKey != "" {
			logger.Info("completion: using anthropic", "model", cfg.AnthropicModel)
			return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.CompletionTimeout), nil
		}
		if cfg.GeminiAPIKey != "" {
			logger.Info("completion: using gemini", "model", cfg.GeminiModel)
			return NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel)
		}
		logger.Warn("completion: no API key configured, using noop provider")
		return NoopProvider{}, nil
	}
}

// NoopProvider returns empty text. Useful for wiring checks without an
// API key; assessment consumers fall back to neutral defaults.
type NoopProvider struct{}

// Complete implements Provider.
func (NoopProvider) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	return "", nil
}
