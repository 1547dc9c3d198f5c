package port

import "context"

// LLM represents a hosted language model for text generation.
type LLM interface {
	// Generate sends a single prompt and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
