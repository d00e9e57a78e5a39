package llm

import (
	"context"
	"errors"
)

// ErrEmbeddingsUnsupported is returned by providers without an embeddings API.
var ErrEmbeddingsUnsupported = errors.New("embeddings not supported by provider")

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient turns a batch of texts into fixed-length vectors, one per
// input and in input order.
type EmbedderClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}
