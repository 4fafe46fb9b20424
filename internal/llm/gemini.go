// Package llm adapts generative model backends behind a minimal text
// generation interface.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// TextGenerator produces text from a prompt. Implementations may time out or
// fail; callers own the failure policy.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Gemini is a TextGenerator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client with the given API key. Model defaults to
// a fast, inexpensive variant suited to short post-processing calls.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Gemini{client: client, model: model}, nil
}

// GenerateText sends the prompt and returns the concatenated response text.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}
