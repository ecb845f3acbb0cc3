package services

import (
	"context"
	"errors"
	"fmt"

	"bread-daily-service/utils"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when GEMINI_MODEL is unset
const DefaultGeminiModel = "gemini-3-flash-preview"

// ContentGenerator asks a generative model for a JSON document matching schema
// and returns the raw response text.
type ContentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// GeminiClient is the ContentGenerator backed by the Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: utils.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// GenerateJSON sends prompt with a JSON response schema.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// Model returns the model name requests are sent to.
func (c *GeminiClient) Model() string {
	return c.model
}

// ErrNoContentBackend is returned by OfflineGenerator
var ErrNoContentBackend = errors.New("no content backend configured")

// OfflineGenerator stands in when no API key is configured. Moderation then
// fails open and scripture fetches fail closed, as with any backend outage.
type OfflineGenerator struct{}

func (OfflineGenerator) GenerateJSON(context.Context, string, *genai.Schema) (string, error) {
	return "", ErrNoContentBackend
}
