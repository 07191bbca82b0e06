package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ragchat/internal/adapter/llm"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024

	provider = "anthropic"
)

// Generator answers prompts with the Anthropic messages API.
type Generator struct {
	options llm.Options
	client  *anthropic.Client
}

func NewGenerator(opts ...llm.Option) (*Generator, error) {
	options := llm.NewOptions(opts...)
	if options.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", llm.ErrInvalidAPIKey)
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}
	if options.MaxOutputTokens <= 0 {
		options.MaxOutputTokens = defaultMaxTokens
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(options.APIKey),
		option.WithMaxRetries(0),
	}
	if options.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(options.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Generator{
		options: options,
		client:  &client,
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

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.options.Model),
		MaxTokens: int64(g.options.MaxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.options.Temperature > 0 {
		req.Temperature = anthropic.Float(float64(g.options.Temperature))
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	if b.Len() == 0 {
		return "", llm.ErrEmptyResponse
	}

	return b.String(), nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.NewStatusError(provider, apiErr.StatusCode, apiErr.Error())
	}

	return fmt.Errorf("anthropic: %w: %v", llm.ErrUpstream, err)
}
