// Package document implements document writes and reads on top of the
// descriptor repository, with automatic vectorization.
package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Service handles document CRUD with automatic vectorization.
type Service struct {
	repo     Repository
	cols     Collections
	embedder Embedder
	logger   *zap.Logger
}

// New creates a document service.
func New(repo Repository, cols Collections, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cols:     cols,
		embedder: embedder,
		logger:   logger,
	}
}

// Add inserts documents and returns their ids. Documents without an id
// get a generated one; documents without a vector are embedded from
// their content. An existing document with the same id is replaced.
func (s *Service) Add(ctx context.Context, docs []domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	prepared, err := s.prepare(ctx, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(prepared))
	for i := range prepared {
		ids[i] = prepared[i].ID
	}

	// Replacing on id collision keeps add idempotent for re-ingestion.
	if _, err := s.repo.DeleteByIDs(ctx, s.set(), ids); err != nil {
		return nil, fmt.Errorf("replace existing documents: %w", err)
	}
	if err := s.repo.AddBatch(ctx, s.set(), prepared); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}
	if err := s.extendRegistry(ctx, prepared); err != nil {
		return nil, err
	}

	s.logger.Debug("Added documents",
		zap.String("collection", s.set()), zap.Int("count", len(prepared)))
	return ids, nil
}

// Update replaces existing documents in place. Every id must already
// exist; otherwise ErrDocumentNotFound is returned and nothing changes.
func (s *Service) Update(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("update requires document ids: %w", domain.ErrValidation)
		}
		ids[i] = doc.ID
	}

	existing, err := s.repo.FindByIDs(ctx, s.set(), ids, []string{domain.IDProperty}, false)
	if err != nil {
		return fmt.Errorf("check existing documents: %w", err)
	}
	found := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		found[doc.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("document %q: %w", id, domain.ErrDocumentNotFound)
		}
	}

	prepared, err := s.prepare(ctx, docs)
	if err != nil {
		return err
	}
	if _, err := s.repo.DeleteByIDs(ctx, s.set(), ids); err != nil {
		return fmt.Errorf("replace documents: %w", err)
	}
	if err := s.repo.AddBatch(ctx, s.set(), prepared); err != nil {
		return fmt.Errorf("update documents: %w", err)
	}
	if err := s.extendRegistry(ctx, prepared); err != nil {
		return err
	}
	return s.cols.StoreIndex(ctx)
}

// Delete removes documents by ids, by constraints, or both. With neither
// it clears the collection. It reports how many documents matched;
// missing ids are not an error.
func (s *Service) Delete(ctx context.Context, ids []string, constraints domain.Constraints) (int, error) {
	if err := constraints.Validate(); err != nil {
		return 0, err
	}
	matched := 0

	switch {
	case len(ids) > 0:
		n, err := s.repo.DeleteByIDs(ctx, s.set(), ids)
		if err != nil {
			return 0, fmt.Errorf("delete documents: %w", err)
		}
		matched += n
		if len(constraints) > 0 {
			n, err := s.repo.DeleteByConstraints(ctx, s.set(), constraints)
			if err != nil {
				return matched, fmt.Errorf("delete documents: %w", err)
			}
			matched += n
		}
	case len(constraints) > 0:
		n, err := s.repo.DeleteByConstraints(ctx, s.set(), constraints)
		if err != nil {
			return 0, fmt.Errorf("delete documents: %w", err)
		}
		matched = n
	default:
		// Clearing everything is expressed as "any id".
		all := domain.Constraints{
			domain.IDProperty: {Op: domain.OpNotEqual, Value: ""},
		}
		n, err := s.repo.DeleteByConstraints(ctx, s.set(), all)
		if err != nil {
			return 0, fmt.Errorf("delete documents: %w", err)
		}
		matched = n
	}

	if matched > 0 {
		if err := s.cols.StoreIndex(ctx); err != nil {
			return matched, err
		}
	}
	return matched, nil
}

// GetByIDs returns the stored documents for the given ids. Missing ids
// produce no document.
func (s *Service) GetByIDs(ctx context.Context, ids []string, withVectors bool) ([]domain.Document, error) {
	props, err := s.cols.Properties(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.FindByIDs(ctx, s.set(), ids, props, withVectors)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	return docs, nil
}

// GetByConstraints returns documents matching the conjunctive filter.
// limit of 0 means no limit.
func (s *Service) GetByConstraints(
	ctx context.Context, constraints domain.Constraints, limit int, withVectors bool,
) ([]domain.Document, error) {
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	props, err := s.cols.Properties(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.FindByConstraints(ctx, s.set(), constraints, props, limit, withVectors)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	return docs, nil
}

// Count reports how many documents the collection holds.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx, s.set())
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Service) set() string {
	return s.cols.Collection().Name
}

// prepare fills in missing ids and vectors and validates dimensions.
// The input slice is not mutated.
func (s *Service) prepare(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	var missingIdx []int
	var missingTexts []string

	for i, doc := range docs {
		doc.Metadata = domain.ValidateMetadata(doc.Metadata)
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.Vector == nil {
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, doc.Content)
		}
		out[i] = doc
	}

	if len(missingTexts) > 0 {
		vecs, err := s.embedder.EmbedDocuments(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("vectorize documents: %w", err)
		}
		if len(vecs) != len(missingTexts) {
			return nil, fmt.Errorf("got %d embeddings for %d texts: %w",
				len(vecs), len(missingTexts), domain.ErrEmbeddingProviderError)
		}
		for j, i := range missingIdx {
			out[i].Vector = vecs[j]
		}
	}

	dims := s.cols.Collection().Dimensions
	for i := range out {
		if dims > 0 && len(out[i].Vector) != dims {
			return nil, fmt.Errorf("document %q: vector dimension %d, want %d: %w",
				out[i].ID, len(out[i].Vector), dims, domain.ErrValidation)
		}
	}
	return out, nil
}

func (s *Service) extendRegistry(ctx context.Context, docs []domain.Document) error {
	seen := map[string]struct{}{}
	var keys []string
	for i := range docs {
		for k := range docs[i].Properties() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	if err := s.cols.Extend(ctx, keys); err != nil {
		return fmt.Errorf("extend property registry: %w", err)
	}
	return nil
}
