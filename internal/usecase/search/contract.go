package search

import (
	"context"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Repository defines the descriptor search contract.
type Repository interface {
	FindNeighbors(
		ctx context.Context, set string, vector []float32, k int,
		constraints domain.Constraints, props []string, withVectors bool,
	) ([]domain.ScoredDocument, error)
	FindByConstraints(
		ctx context.Context, set string, constraints domain.Constraints,
		props []string, limit int, withVectors bool,
	) ([]domain.Document, error)
}

// Collections exposes the owning collection and its property registry.
type Collections interface {
	Collection() domain.Collection
	Properties(ctx context.Context) ([]string, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
