package provider

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/llm/anthropic"
	"ragchat/internal/adapter/llm/gemini"
	"ragchat/internal/adapter/llm/mock"
	"ragchat/internal/adapter/llm/openai"
	"ragchat/internal/port"
)

const (
	Gemini    = "gemini"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mock      = "mock"
)

// Names lists the supported provider names.
func Names() []string {
	return []string{Gemini, OpenAI, Anthropic, Mock}
}

// New builds a generator for the named provider.
func New(ctx context.Context, name string, opts ...llm.Option) (port.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Gemini, "":
		return gemini.NewGenerator(ctx, opts...)
	case OpenAI:
		return openai.NewGenerator(opts...)
	case Anthropic:
		return anthropic.NewGenerator(opts...)
	case Mock:
		return mock.NewGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}

// Factory returns a GeneratorFactory that builds a generator per request
// key. Options passed here apply to every generator it builds.
func Factory(ctx context.Context, name string, opts ...llm.Option) port.GeneratorFactory {
	return func(apiKey string) (port.Generator, error) {
		all := append(append([]llm.Option{}, opts...), llm.WithAPIKey(apiKey))
		return New(ctx, name, all...)
	}
}
