package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const ModelName = "mock"

// Generator is an offline generator for local runs and tests. It answers
// with a short summary of the prompt it was given.
type Generator struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) ModelName() string {
	return ModelName
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}
	if g.Response != "" {
		return g.Response, nil
	}

	question := prompt
	if i := strings.LastIndex(prompt, "User question: "); i >= 0 {
		question = prompt[i+len("User question: "):]
	}
	sources := strings.Count(prompt, "[From: ")

	return fmt.Sprintf("(mock) %d context chunk(s) for: %s", sources, strings.TrimSpace(question)), nil
}

// Prompts returns every prompt received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
