package collection

import (
	"context"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Repository defines the descriptor set storage contract.
type Repository interface {
	Ensure(ctx context.Context, col domain.Collection) (created bool, err error)
	StoreIndex(ctx context.Context, name string) error
	Properties(ctx context.Context, collection string) ([]string, error)
	UpdateProperties(ctx context.Context, collection string, props []string) error
}
