package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"ragchat/internal/adapter/llm"
)

const (
	DefaultModel = openai.GPT4oMini

	provider = "openai"
)

// Generator answers prompts with the OpenAI chat completions API.
type Generator struct {
	options llm.Options
	client  *openai.Client
}

func NewGenerator(opts ...llm.Option) (*Generator, error) {
	options := llm.NewOptions(opts...)
	if options.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", llm.ErrInvalidAPIKey)
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}

	cfg := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		cfg.BaseURL = options.BaseURL
	}

	return &Generator{
		options: options,
		client:  openai.NewClientWithConfig(cfg),
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

	req := openai.ChatCompletionRequest{
		Model: g.options.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: g.options.Temperature,
		TopP:        g.options.TopP,
		MaxTokens:   g.options.MaxOutputTokens,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", llm.ErrEmptyResponse
	}

	return rsp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewStatusError(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.NewStatusError(provider, reqErr.HTTPStatusCode, reqErr.Error())
	}

	return fmt.Errorf("openai: %w: %v", llm.ErrUpstream, err)
}
