package vdms

import (
	"context"
	"fmt"

	"github.com/cwlacewe/vdms-go/internal/domain"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
)

// Add inserts documents and returns their ids. Documents without an id
// get a generated one; documents without a vector are embedded from
// their content. Re-adding an existing id replaces the document.
func (c *Client) Add(ctx context.Context, docs []Document) ([]string, error) {
	internal := make([]domain.Document, len(docs))
	for i, doc := range docs {
		internal[i] = doc.toDomain()
	}
	ids, err := c.docSvc.Add(ctx, internal)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return ids, nil
}

// AddTexts inserts plain texts with optional metadata and ids. metadatas
// and ids may be nil; when given, their length must match texts.
func (c *Client) AddTexts(
	ctx context.Context, texts []string, metadatas []map[string]any, ids []string,
) ([]string, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("add texts: %d metadatas for %d texts: %w",
			len(metadatas), len(texts), ErrValidation)
	}
	if ids != nil && len(ids) != len(texts) {
		return nil, fmt.Errorf("add texts: %d ids for %d texts: %w",
			len(ids), len(texts), ErrValidation)
	}

	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = Document{Content: text}
		if metadatas != nil {
			docs[i].Metadata = metadatas[i]
		}
		if ids != nil {
			docs[i].ID = ids[i]
		}
	}
	return c.Add(ctx, docs)
}

// AddEmbeddings inserts texts with pre-computed vectors, bypassing the
// embedder. vectors must match texts in length.
func (c *Client) AddEmbeddings(
	ctx context.Context, texts []string, vectors [][]float32,
	metadatas []map[string]any, ids []string,
) ([]string, error) {
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("add embeddings: %d vectors for %d texts: %w",
			len(vectors), len(texts), ErrValidation)
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("add embeddings: %d metadatas for %d texts: %w",
			len(metadatas), len(texts), ErrValidation)
	}
	if ids != nil && len(ids) != len(texts) {
		return nil, fmt.Errorf("add embeddings: %d ids for %d texts: %w",
			len(ids), len(texts), ErrValidation)
	}

	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = Document{Content: text, Vector: vectors[i]}
		if metadatas != nil {
			docs[i].Metadata = metadatas[i]
		}
		if ids != nil {
			docs[i].ID = ids[i]
		}
	}
	return c.Add(ctx, docs)
}

// Update replaces existing documents in place. Every document id must
// already exist; otherwise ErrDocumentNotFound is returned and nothing
// changes.
func (c *Client) Update(ctx context.Context, docs []Document) error {
	internal := make([]domain.Document, len(docs))
	for i, doc := range docs {
		internal[i] = doc.toDomain()
	}
	if err := c.docSvc.Update(ctx, internal); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// Delete removes documents by ids, by constraints, or both, and reports
// how many matched. Missing ids are not an error. With neither argument
// the whole collection is cleared.
func (c *Client) Delete(ctx context.Context, ids []string, filter Constraints) (int, error) {
	matched, err := c.docSvc.Delete(ctx, ids, filter.toDomain())
	if err != nil {
		return matched, fmt.Errorf("delete: %w", err)
	}
	return matched, nil
}

// GetByIDs returns the stored documents for the given ids. Missing ids
// produce no document.
func (c *Client) GetByIDs(ctx context.Context, ids []string) ([]Document, error) {
	docs, err := c.docSvc.GetByIDs(ctx, ids, false)
	if err != nil {
		return nil, fmt.Errorf("get by ids: %w", err)
	}
	return documentsFromDomain(docs), nil
}

// GetByIDsWithVectors is GetByIDs with the stored vector attached to
// each document.
func (c *Client) GetByIDsWithVectors(ctx context.Context, ids []string) ([]Document, error) {
	docs, err := c.docSvc.GetByIDs(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("get by ids: %w", err)
	}
	return documentsFromDomain(docs), nil
}

// GetByConstraints returns documents matching the filter. limit of 0
// means no limit.
func (c *Client) GetByConstraints(ctx context.Context, filter Constraints, limit int) ([]Document, error) {
	docs, err := c.docSvc.GetByConstraints(ctx, filter.toDomain(), limit, false)
	if err != nil {
		return nil, fmt.Errorf("get by constraints: %w", err)
	}
	return documentsFromDomain(docs), nil
}

// GetByConstraintsWithVectors is GetByConstraints with the stored
// vector attached to each document.
func (c *Client) GetByConstraintsWithVectors(
	ctx context.Context, filter Constraints, limit int,
) ([]Document, error) {
	docs, err := c.docSvc.GetByConstraints(ctx, filter.toDomain(), limit, true)
	if err != nil {
		return nil, fmt.Errorf("get by constraints: %w", err)
	}
	return documentsFromDomain(docs), nil
}

// Count reports how many documents the collection holds.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.docSvc.Count(ctx)
}

// SimilaritySearch returns the k documents most similar to the query
// text, optionally restricted by a metadata filter.
func (c *Client) SimilaritySearch(
	ctx context.Context, text string, k int, filter Constraints,
) ([]Document, error) {
	scored, err := c.searchSvc.Search(ctx, text, searchuc.Options{
		K:           k,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return documentsOnly(scored), nil
}

// SimilaritySearchWithScore is SimilaritySearch with the raw server
// distance attached to each result.
func (c *Client) SimilaritySearchWithScore(
	ctx context.Context, text string, k int, filter Constraints,
) ([]ScoredDocument, error) {
	scored, err := c.searchSvc.Search(ctx, text, searchuc.Options{
		K:           k,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return scoredFromDomain(scored), nil
}

// SimilaritySearchByVector ranks documents against a pre-computed query
// vector.
func (c *Client) SimilaritySearchByVector(
	ctx context.Context, vector []float32, k int, filter Constraints,
) ([]Document, error) {
	scored, err := c.searchSvc.SearchByVector(ctx, vector, searchuc.Options{
		K:           k,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return documentsOnly(scored), nil
}

// SimilaritySearchWithScoreByVector is SimilaritySearchByVector with
// the raw server distance attached to each result.
func (c *Client) SimilaritySearchWithScoreByVector(
	ctx context.Context, vector []float32, k int, filter Constraints,
) ([]ScoredDocument, error) {
	scored, err := c.searchSvc.SearchByVector(ctx, vector, searchuc.Options{
		K:           k,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return scoredFromDomain(scored), nil
}

// SimilaritySearchWithRelevanceScores is SimilaritySearch with scores
// normalized into [0, 1], 1 being most relevant regardless of metric.
func (c *Client) SimilaritySearchWithRelevanceScores(
	ctx context.Context, text string, k int, filter Constraints,
) ([]ScoredDocument, error) {
	scored, err := c.searchSvc.Search(ctx, text, searchuc.Options{
		K:           k,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return scoredFromDomain(c.searchSvc.RelevanceScores(scored)), nil
}

// MaxMarginalRelevanceSearch returns k documents chosen from a pool of
// fetchK candidates, balancing query similarity against diversity.
// lambda of 1 is pure relevance, 0 pure diversity; values outside
// [0, 1] fall back to 0.5.
func (c *Client) MaxMarginalRelevanceSearch(
	ctx context.Context, text string, k, fetchK int, lambda float64, filter Constraints,
) ([]Document, error) {
	scored, err := c.searchSvc.SearchMMR(ctx, text, searchuc.MMROptions{
		K:           k,
		FetchK:      fetchK,
		Lambda:      lambda,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("mmr search: %w", err)
	}
	return documentsOnly(scored), nil
}

// MaxMarginalRelevanceSearchWithScore is MaxMarginalRelevanceSearch
// with the raw server distance attached to each result.
func (c *Client) MaxMarginalRelevanceSearchWithScore(
	ctx context.Context, text string, k, fetchK int, lambda float64, filter Constraints,
) ([]ScoredDocument, error) {
	scored, err := c.searchSvc.SearchMMR(ctx, text, searchuc.MMROptions{
		K:           k,
		FetchK:      fetchK,
		Lambda:      lambda,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("mmr search: %w", err)
	}
	return scoredFromDomain(scored), nil
}

// MaxMarginalRelevanceSearchByVector is MaxMarginalRelevanceSearch with
// a pre-computed query vector.
func (c *Client) MaxMarginalRelevanceSearchByVector(
	ctx context.Context, vector []float32, k, fetchK int, lambda float64, filter Constraints,
) ([]Document, error) {
	scored, err := c.searchSvc.SearchMMRByVector(ctx, vector, searchuc.MMROptions{
		K:           k,
		FetchK:      fetchK,
		Lambda:      lambda,
		Constraints: filter.toDomain(),
	})
	if err != nil {
		return nil, fmt.Errorf("mmr search: %w", err)
	}
	return documentsOnly(scored), nil
}
