package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider generates text via the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider for the given model.
func NewGeminiProvider(apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Complete implements Provider.
func (p *GeminiProvider) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	var contents []*genai.Content
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("completion: gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("completion: gemini returned empty content")
	}
	return text, nil
}
