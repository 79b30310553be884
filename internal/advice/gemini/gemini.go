// Package gemini implements advice.Generator on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"bumdes/internal/advice"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string
	// Endpoint overrides the service base URL, e.g. for a local fake.
	Endpoint string
}

type Client struct {
	client *genai.Client
	model  string
}

var _ advice.Generator = (*Client)(nil)

// New creates a client. Without an API key it returns advice.ErrUnconfigured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, advice.ErrUnconfigured
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: modelName(cfg.Model)}, nil
}

func modelName(m string) string {
	m = strings.TrimSpace(m)
	m = strings.TrimPrefix(m, "models/")
	if m == "" {
		m = DefaultModel
	}
	return m
}

func (c *Client) Model() string {
	return c.model
}

// Generate sends a single-turn prompt with thinking disabled and returns the
// text of the first candidate. A response without text yields "".
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

// IsUnconfigured reports whether err means no credential was supplied.
func IsUnconfigured(err error) bool {
	return errors.Is(err, advice.ErrUnconfigured)
}
