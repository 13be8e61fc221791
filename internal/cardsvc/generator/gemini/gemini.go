// Package gemini implements generator.Client over the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/generator"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// GenAI generates cards with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Generate(ctx context.Context, level, category string) (string, error) {
	temperature := float32(0.9)
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(generator.Prompt(level, category)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      &temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text")
	}
	return text, nil
}

var _ generator.Client = (*GenAI)(nil)

func (g *GenAI) Name() string {
	return fmt.Sprintf("genai:%s", g.model)
}
