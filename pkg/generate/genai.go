package generate

import (
	"context"

	"gitlab.com/tozd/go/errors"
	"google.golang.org/genai"
)

// Generator is the text-in/text-out boundary to the generation service.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelInfo describes one model offered by the service.
type ModelInfo struct {
	Name    string   // Full resource name, e.g. "models/gemini-1.5-flash".
	Actions []string // Supported generation methods, e.g. "generateContent".
}

// ModelLister enumerates the models the service offers.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// GenAIClient talks to the Gemini API.
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient creates a Gemini API client for apiKey.
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Errorf("creating GenAI client: %w", err)
	}

	return &GenAIClient{client: client}, nil
}

// Generate sends prompt to model and returns the text of the first candidate.
func (c *GenAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// ListModels returns every model visible to the API key.
func (c *GenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, errors.Errorf("GenAI list models failed: %w", err)
		}
		models = append(models, ModelInfo{Name: m.Name, Actions: m.SupportedActions})
	}
	return models, nil
}
