package insights

import "context"

// Request is one outbound call to the text-generation provider.
type Request struct {
	Intent         Intent
	Model          string
	Prompt         string
	Grounded       bool
	ThinkingBudget int32
}

// Response carries the provider text and any raw grounding sources.
type Response struct {
	Text    string
	Sources []Source
}

// Generator issues a single provider request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
