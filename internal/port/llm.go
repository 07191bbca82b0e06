package port

import "context"

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	// Generate sends the prompt to the hosted model and returns its text.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// GeneratorFactory builds a Generator bound to a caller-supplied API key.
type GeneratorFactory func(apiKey string) (Generator, error)
