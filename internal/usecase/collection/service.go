// Package collection manages a descriptor set and its property registry.
// The registry tracks the union of metadata keys ever written so result
// property lists stay complete across clients.
package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Service owns one collection and keeps its property registry in sync.
type Service struct {
	repo   Repository
	col    domain.Collection
	logger *zap.Logger

	mu    sync.Mutex
	props []string
}

// New creates a collection service.
func New(repo Repository, col domain.Collection, logger *zap.Logger) *Service {
	return &Service{repo: repo, col: col, logger: logger}
}

// Collection returns the collection descriptor.
func (s *Service) Collection() domain.Collection {
	return s.col
}

// Ensure creates the descriptor set if needed and loads the property
// registry. It is safe to call more than once.
func (s *Service) Ensure(ctx context.Context) error {
	created, err := s.repo.Ensure(ctx, s.col)
	if err != nil {
		return fmt.Errorf("ensure collection %q: %w", s.col.Name, err)
	}
	if created {
		s.logger.Info("Created descriptor set",
			zap.String("collection", s.col.Name),
			zap.String("engine", string(s.col.Engine)),
			zap.String("metric", string(s.col.Metric)),
			zap.Int("dimensions", s.col.Dimensions))
	}

	props, err := s.repo.Properties(ctx, s.col.Name)
	if err != nil {
		return fmt.Errorf("load properties %q: %w", s.col.Name, err)
	}

	s.mu.Lock()
	s.props = props
	s.mu.Unlock()
	return nil
}

// Properties returns the registered property names.
func (s *Service) Properties(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	cached := s.props
	s.mu.Unlock()

	if cached != nil {
		return append([]string(nil), cached...), nil
	}

	props, err := s.repo.Properties(ctx, s.col.Name)
	if err != nil {
		return nil, fmt.Errorf("load properties %q: %w", s.col.Name, err)
	}
	s.mu.Lock()
	s.props = props
	s.mu.Unlock()
	return append([]string(nil), props...), nil
}

// Extend merges new metadata keys into the registry and pushes the
// updated registry to the server when it grew.
func (s *Service) Extend(ctx context.Context, keys []string) error {
	s.mu.Lock()
	known := make(map[string]struct{}, len(s.props))
	for _, p := range s.props {
		known[p] = struct{}{}
	}
	grown := false
	merged := append([]string(nil), s.props...)
	for _, k := range keys {
		if _, ok := known[k]; ok {
			continue
		}
		known[k] = struct{}{}
		merged = append(merged, k)
		grown = true
	}
	if grown {
		sort.Strings(merged)
		s.props = merged
	}
	s.mu.Unlock()

	if !grown {
		return nil
	}
	if err := s.repo.UpdateProperties(ctx, s.col.Name, merged); err != nil {
		return fmt.Errorf("extend properties %q: %w", s.col.Name, err)
	}
	return nil
}

// StoreIndex persists the set index after deletions.
func (s *Service) StoreIndex(ctx context.Context) error {
	if err := s.repo.StoreIndex(ctx, s.col.Name); err != nil {
		return fmt.Errorf("store index %q: %w", s.col.Name, err)
	}
	return nil
}
