package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"ragchat/internal/adapter/llm"
)

const (
	DefaultModel = "gemini-1.5-flash"

	provider = "gemini"
)

// Generator answers prompts with the Gemini generateContent API.
type Generator struct {
	options llm.Options
	client  *genai.Client
}

func NewGenerator(ctx context.Context, opts ...llm.Option) (*Generator, error) {
	options := llm.NewOptions(opts...)
	if options.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrInvalidAPIKey)
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  options.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if options.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: options.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Generator{
		options: options,
		client:  client,
	}, nil
}

func (g *Generator) ModelName() string {
	return g.options.Model
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.options.Timeout)
		defer cancel()
	}

	rsp, err := g.client.Models.GenerateContent(ctx, g.options.Model, genai.Text(prompt), g.buildConfig())
	if err != nil {
		return "", classify(err)
	}

	text := rsp.Text()
	if text == "" {
		return "", llm.ErrEmptyResponse
	}

	return text, nil
}

func (g *Generator) buildConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if g.options.Temperature > 0 {
		config.Temperature = genai.Ptr(g.options.Temperature)
	}
	if g.options.TopK > 0 {
		config.TopK = genai.Ptr(float32(g.options.TopK))
	}
	if g.options.TopP > 0 {
		config.TopP = genai.Ptr(g.options.TopP)
	}
	if g.options.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(g.options.MaxOutputTokens)
	}

	return config
}

// classify converts genai API failures into llm.StatusError so callers can
// branch on the upstream status.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewStatusError(provider, apiErr.Code, apiErr.Message)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return llm.NewStatusError(provider, apiErrPtr.Code, apiErrPtr.Message)
	}

	return fmt.Errorf("gemini: %w: %v", llm.ErrUpstream, err)
}
