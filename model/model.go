package model

import "context"

// Embedder converts text into a fixed-dimension vector. The dimension must be
// constant across all calls for one index. Identity names the embedding space
// so an index can refuse queries embedded by a different model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Identity() string
}

// Generator produces text from a prompt. Bounded input size is the caller's
// responsibility.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
