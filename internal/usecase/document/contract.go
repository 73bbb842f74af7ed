package document

import (
	"context"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Repository defines the descriptor storage contract.
type Repository interface {
	AddBatch(ctx context.Context, set string, docs []domain.Document) error
	FindByIDs(ctx context.Context, set string, ids []string, props []string, withVectors bool) ([]domain.Document, error)
	FindByConstraints(
		ctx context.Context, set string, constraints domain.Constraints,
		props []string, limit int, withVectors bool,
	) ([]domain.Document, error)
	DeleteByIDs(ctx context.Context, set string, ids []string) (int, error)
	DeleteByConstraints(ctx context.Context, set string, constraints domain.Constraints) (int, error)
	Count(ctx context.Context, set string) (int, error)
}

// Collections tracks the owning collection and its property registry.
type Collections interface {
	Collection() domain.Collection
	Properties(ctx context.Context) ([]string, error)
	Extend(ctx context.Context, keys []string) error
	StoreIndex(ctx context.Context) error
}

// Embedder vectorizes document text.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
