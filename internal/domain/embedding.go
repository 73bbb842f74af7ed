package domain

import (
	"context"
	"fmt"
)

// Embedder is the text vectorization contract shared between layers.
// Documents and queries embed separately so instruction-tuned models can
// apply different prefixes to each.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// InstructionEmbedder prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner            Embedder
	docInstruction   string
	queryInstruction string
}

// NewInstructionEmbedder creates a decorator that prepends per-role instructions.
func NewInstructionEmbedder(inner Embedder, docInstruction, queryInstruction string) *InstructionEmbedder {
	return &InstructionEmbedder{
		inner:            inner,
		docInstruction:   docInstruction,
		queryInstruction: queryInstruction,
	}
}

// EmbedDocuments prepends the document instruction and delegates.
func (e *InstructionEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	prefixed := texts
	if e.docInstruction != "" {
		prefixed = make([]string, len(texts))
		for i, t := range texts {
			prefixed[i] = e.docInstruction + t
		}
	}
	vecs, err := e.inner.EmbedDocuments(ctx, prefixed)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	return vecs, nil
}

// EmbedQuery prepends the query instruction and delegates.
func (e *InstructionEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.inner.EmbedQuery(ctx, e.queryInstruction+text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// ProbeDimensions embeds a sample sentence to discover the vector size of an
// embedder whose dimensionality was not configured explicitly.
func ProbeDimensions(ctx context.Context, e Embedder) (int, error) {
	vec, err := e.EmbedQuery(ctx, "This is a sample sentence.")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimensions: %w", err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("probe embedding dimensions: empty vector: %w", ErrEmbeddingProviderError)
	}
	return len(vec), nil
}
