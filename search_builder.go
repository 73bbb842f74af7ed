package vdms

import (
	"context"
	"fmt"

	"github.com/cwlacewe/vdms-go/internal/domain"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
)

// SearchBuilder is a fluent builder for similarity searches.
//
//	docs, err := client.Search("solar panels").
//		K(5).
//		Where("year", Gte(2020)).
//		Relevance().
//		Do(ctx)
type SearchBuilder struct {
	c *Client

	text   string
	vector []float32

	k      int
	fetchK int
	filter Constraints

	relevance bool
	mmr       bool
	lambda    float64
}

// Search starts a fluent search for the query text.
func (c *Client) Search(text string) *SearchBuilder {
	return &SearchBuilder{c: c, text: text}
}

// SearchVector starts a fluent search for a pre-computed query vector.
func (c *Client) SearchVector(vector []float32) *SearchBuilder {
	return &SearchBuilder{c: c, vector: vector}
}

// K sets the number of results to return.
func (b *SearchBuilder) K(k int) *SearchBuilder {
	b.k = k
	return b
}

// FetchK sets the candidate pool size for filtered and MMR search.
func (b *SearchBuilder) FetchK(n int) *SearchBuilder {
	b.fetchK = n
	return b
}

// Where adds a metadata constraint. Conditions on the same field
// overwrite each other.
func (b *SearchBuilder) Where(field string, cond Condition) *SearchBuilder {
	if b.filter == nil {
		b.filter = Constraints{}
	}
	b.filter[field] = cond
	return b
}

// Filter replaces the whole constraint set.
func (b *SearchBuilder) Filter(filter Constraints) *SearchBuilder {
	b.filter = filter
	return b
}

// Relevance converts scores into [0, 1] relevance, 1 most relevant.
func (b *SearchBuilder) Relevance() *SearchBuilder {
	b.relevance = true
	return b
}

// MMR reranks the candidate pool for diversity with maximal marginal
// relevance. lambda of 1 is pure relevance, 0 pure diversity.
func (b *SearchBuilder) MMR(lambda float64) *SearchBuilder {
	b.mmr = true
	b.lambda = lambda
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) ([]ScoredDocument, error) {
	scored, err := b.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if b.relevance {
		scored = b.c.searchSvc.RelevanceScores(scored)
	}
	return scoredFromDomain(scored), nil
}

func (b *SearchBuilder) run(ctx context.Context) ([]domain.ScoredDocument, error) {
	svc := b.c.searchSvc

	if b.mmr {
		opts := searchuc.MMROptions{
			K:           b.k,
			FetchK:      b.fetchK,
			Lambda:      b.lambda,
			Constraints: b.filter.toDomain(),
		}
		if b.vector != nil {
			return svc.SearchMMRByVector(ctx, b.vector, opts)
		}
		return svc.SearchMMR(ctx, b.text, opts)
	}

	opts := searchuc.Options{
		K:           b.k,
		FetchK:      b.fetchK,
		Constraints: b.filter.toDomain(),
	}
	if b.vector != nil {
		return svc.SearchByVector(ctx, b.vector, opts)
	}
	return svc.Search(ctx, b.text, opts)
}
