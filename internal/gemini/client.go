// Package gemini generates answers with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/descubra-ms/guata/internal/domain"
)

const (
	// DefaultModel is the Gemini model used for answer generation
	DefaultModel = "gemini-1.5-flash"
	// DefaultTemperature matches the conversational tone of the assistant
	DefaultTemperature = 0.7
	// DefaultMaxTokens bounds the length of a generated answer
	DefaultMaxTokens = 800
)

var (
	// ErrEmptyPrompt is returned when prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrEmptyCompletion is returned when the model produced no text
	ErrEmptyCompletion = domain.ErrEmptyGeneration
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("gemini api key not set")
)

// ContentAPI defines the interface for single-shot content generation
type ContentAPI interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Config holds the model settings
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Client generates text from a prompt
type Client struct {
	api    ContentAPI
	closer func() error
}

type genaiAdapter struct {
	model *genai.GenerativeModel
}

// GenerateText sends the prompt and concatenates the text parts of the
// first candidate.
func (a *genaiAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// withDefaults fills unset fields. A zero temperature is a valid setting.
func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg = cfg.withDefaults()

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := gc.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxTokens)

	return &Client{
		api:    &genaiAdapter{model: model},
		closer: gc.Close,
	}, nil
}

// Generate returns the model's answer to prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	text, err := c.api.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
