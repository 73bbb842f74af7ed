// Package search implements similarity search over a descriptor set,
// including constraint-filtered search and maximal marginal relevance.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Search defaults.
const (
	DefaultK      = 3
	DefaultFetchK = 15
	DefaultLambda = 0.5
)

// Options configures a similarity search.
type Options struct {
	// K is the number of results to return. Zero means DefaultK.
	K int
	// FetchK is the candidate pool size for filtered search. Zero means
	// DefaultFetchK. Ignored when Constraints is empty.
	FetchK int
	// Constraints restricts candidates by metadata before ranking.
	Constraints domain.Constraints
	// IncludeVectors attaches stored vectors to the results.
	IncludeVectors bool
}

// Service runs similarity searches.
type Service struct {
	repo     Repository
	cols     Collections
	embedder Embedder
	logger   *zap.Logger
}

// New creates a search service.
func New(repo Repository, cols Collections, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cols:     cols,
		embedder: embedder,
		logger:   logger,
	}
}

// Search embeds the query text and ranks documents against it. Results
// carry the raw server distance as their score, ordered most similar
// first.
func (s *Service) Search(ctx context.Context, text string, opts Options) ([]domain.ScoredDocument, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.SearchByVector(ctx, vec, opts)
}

// SearchByVector ranks documents against a pre-computed query vector.
func (s *Service) SearchByVector(ctx context.Context, vector []float32, opts Options) ([]domain.ScoredDocument, error) {
	k, fetchK, err := s.limits(opts)
	if err != nil {
		return nil, err
	}
	props, err := s.cols.Properties(ctx)
	if err != nil {
		return nil, err
	}
	set := s.cols.Collection().Name

	if len(opts.Constraints) == 0 {
		scored, err := s.repo.FindNeighbors(ctx, set, vector, k, nil, props, opts.IncludeVectors)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", set, err)
		}
		return truncate(scored, k), nil
	}

	// Constraint filtering runs in three phases: a metadata scan for the
	// admissible ids, a KNN over a wider candidate pool, then the
	// intersection in KNN order.
	matches, err := s.repo.FindByConstraints(ctx, set, opts.Constraints,
		[]string{domain.IDProperty}, 0, false)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", set, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	admissible := make(map[string]struct{}, len(matches))
	for _, doc := range matches {
		admissible[doc.ID] = struct{}{}
	}

	scored, err := s.repo.FindNeighbors(ctx, set, vector, fetchK, nil, props, opts.IncludeVectors)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", set, err)
	}

	out := make([]domain.ScoredDocument, 0, k)
	for _, sd := range scored {
		if _, ok := admissible[sd.Document.ID]; !ok {
			continue
		}
		out = append(out, sd)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// RelevanceScores converts raw distances into scores in [0, 1] where 1
// is most relevant, using min-max normalization over the result set.
func (s *Service) RelevanceScores(scored []domain.ScoredDocument) []domain.ScoredDocument {
	if len(scored) == 0 {
		return scored
	}
	min, max := scored[0].Score, scored[0].Score
	for _, sd := range scored[1:] {
		if sd.Score < min {
			min = sd.Score
		}
		if sd.Score > max {
			max = sd.Score
		}
	}
	spread := max - min

	ascending := s.cols.Collection().Metric.Ascending()
	out := make([]domain.ScoredDocument, len(scored))
	for i, sd := range scored {
		norm := 0.0
		if spread > 0 {
			norm = (sd.Score - min) / spread
		}
		if ascending {
			// Lower distance means closer.
			sd.Score = 1 - norm
		} else {
			sd.Score = norm
		}
		out[i] = sd
	}
	return out
}

// MMROptions configures a maximal marginal relevance search.
type MMROptions struct {
	// K is the number of results to return. Zero means DefaultK.
	K int
	// FetchK is the candidate pool size. Zero means DefaultFetchK.
	FetchK int
	// Lambda balances relevance against diversity in [0, 1]; 1 is pure
	// relevance, 0 pure diversity. Values outside the range mean
	// DefaultLambda.
	Lambda float64
	// Constraints restricts candidates by metadata before ranking.
	Constraints domain.Constraints
	// IncludeVectors attaches stored vectors to the results.
	IncludeVectors bool
}

// SearchMMR embeds the query text and reranks a candidate pool for
// diversity with maximal marginal relevance.
func (s *Service) SearchMMR(ctx context.Context, text string, opts MMROptions) ([]domain.ScoredDocument, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.SearchMMRByVector(ctx, vec, opts)
}

// SearchMMRByVector reranks a candidate pool around a pre-computed query
// vector with maximal marginal relevance.
func (s *Service) SearchMMRByVector(ctx context.Context, vector []float32, opts MMROptions) ([]domain.ScoredDocument, error) {
	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	fetchK := opts.FetchK
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	lambda := opts.Lambda
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}

	// The candidate pool needs vectors for the diversity term.
	pool, err := s.SearchByVector(ctx, vector, Options{
		K:              fetchK,
		FetchK:         2 * fetchK,
		Constraints:    opts.Constraints,
		IncludeVectors: true,
	})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	candidates := make([][]float32, len(pool))
	for i := range pool {
		candidates[i] = pool[i].Document.Vector
	}
	picked := maximalMarginalRelevance(vector, candidates, lambda, k)

	out := make([]domain.ScoredDocument, 0, len(picked))
	for _, idx := range picked {
		sd := pool[idx]
		if !opts.IncludeVectors {
			sd.Document.Vector = nil
		}
		out = append(out, sd)
	}
	return out, nil
}

func (s *Service) limits(opts Options) (k, fetchK int, err error) {
	k = opts.K
	if k <= 0 {
		k = DefaultK
	}
	fetchK = opts.FetchK
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	if len(opts.Constraints) > 0 {
		if err := opts.Constraints.Validate(); err != nil {
			return 0, 0, err
		}
		if fetchK < k {
			return 0, 0, fmt.Errorf("fetch_k %d must be at least k %d: %w",
				fetchK, k, domain.ErrValidation)
		}
	}
	return k, fetchK, nil
}

func truncate(scored []domain.ScoredDocument, k int) []domain.ScoredDocument {
	if len(scored) > k {
		return scored[:k]
	}
	return scored
}
