package vdms

import (
	"context"
	"fmt"
)

// TypedIndex is a generic, schema-first view of the client's collection.
// The document schema is inferred from T's struct tags at construction:
//
//	type Article struct {
//		ID    string `vdms:",id"`
//		Body  string `vdms:",content"`
//		Topic string `vdms:"topic"`
//		Year  int    `vdms:"year"`
//	}
type TypedIndex[T any] struct {
	client *Client
	meta   *schemaMeta
}

// NewIndex creates a typed view of the client's collection. T must be a
// struct with vdms tags. The schema is parsed once and cached.
func NewIndex[T any](client *Client) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}
	return &TypedIndex[T]{client: client, meta: meta}, nil
}

// Add inserts items and returns their ids.
func (idx *TypedIndex[T]) Add(ctx context.Context, items []T) ([]string, error) {
	docs := make([]Document, len(items))
	for i, item := range items {
		docs[i] = idx.meta.toDocument(item)
	}
	return idx.client.Add(ctx, docs)
}

// Get retrieves a typed item by id.
func (idx *TypedIndex[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	docs, err := idx.client.GetByIDs(ctx, []string{id})
	if err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}
	if len(docs) == 0 {
		return zero, fmt.Errorf("get %q: %w", id, ErrDocumentNotFound)
	}
	return idx.fromDocument(docs[0])
}

// Delete removes items by id and reports how many matched.
func (idx *TypedIndex[T]) Delete(ctx context.Context, ids ...string) (int, error) {
	return idx.client.Delete(ctx, ids, nil)
}

// Count returns the number of items in the collection.
func (idx *TypedIndex[T]) Count(ctx context.Context) (int, error) {
	return idx.client.Count(ctx)
}

// Hit is a typed search result.
type Hit[T any] struct {
	Item  T
	Score float64
}

// Search returns the k items most similar to the query text, optionally
// restricted by a metadata filter.
func (idx *TypedIndex[T]) Search(
	ctx context.Context, text string, k int, filter Constraints,
) ([]Hit[T], error) {
	scored, err := idx.client.SimilaritySearchWithScore(ctx, text, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit[T], len(scored))
	for i, sd := range scored {
		item, err := idx.fromDocument(sd.Document)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		hits[i] = Hit[T]{Item: item, Score: sd.Score}
	}
	return hits, nil
}

func (idx *TypedIndex[T]) fromDocument(doc Document) (T, error) {
	var zero T
	item, err := idx.meta.fromDocument(doc)
	if err != nil {
		return zero, err
	}
	typed, ok := item.(T)
	if !ok {
		return zero, fmt.Errorf("vdms: type assertion failed for %T", item)
	}
	return typed, nil
}
