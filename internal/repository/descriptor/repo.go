// Package descriptor stores and retrieves document descriptors inside a
// descriptor set.
package descriptor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwlacewe/vdms-go/internal/domain"
	"github.com/cwlacewe/vdms-go/internal/query"
)

// defaultBatchSize caps how many descriptors travel in one query.
const defaultBatchSize = 500

// querier is the consumer interface of the repository (ISP).
type querier interface {
	Query(ctx context.Context, cmds []query.Command, blobs [][]byte) (query.Response, [][]byte, error)
}

// Repo manipulates descriptors over a VDMS connection.
type Repo struct {
	q         querier
	batchSize int
}

// New creates a descriptor repository.
func New(q querier) *Repo {
	return &Repo{q: q, batchSize: defaultBatchSize}
}

// WithBatchSize overrides the insert and delete batch size.
func (r *Repo) WithBatchSize(n int) *Repo {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// AddBatch inserts documents with vectors into the set. Documents are sent
// in batches; a batch rejected for journal space is split in half and
// retried so one oversized insert does not sink the whole call.
func (r *Repo) AddBatch(ctx context.Context, set string, docs []domain.Document) error {
	for start := 0; start < len(docs); start += r.batchSize {
		end := start + r.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := r.addChunk(ctx, set, docs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) addChunk(ctx context.Context, set string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	props := make([]map[string]any, len(docs))
	vecs := make([][]float32, len(docs))
	for i := range docs {
		props[i] = docs[i].Properties()
		vecs[i] = docs[i].Vector
	}
	cmd := query.AddDescriptor(set, props)
	blob := query.ConcatVectors(vecs)

	resp, _, err := r.q.Query(ctx, []query.Command{cmd}, [][]byte{blob})
	if err != nil {
		return fmt.Errorf("add descriptors to %q: %w", set, err)
	}
	if respErr := resp.Err(); respErr != nil {
		if len(docs) > 1 && strings.Contains(respErr.Error(), "journal") {
			mid := len(docs) / 2
			if err := r.addChunk(ctx, set, docs[:mid]); err != nil {
				return err
			}
			return r.addChunk(ctx, set, docs[mid:])
		}
		return fmt.Errorf("add descriptors to %q: %w", set, respErr)
	}
	return nil
}

// FindByConstraints returns documents matching the conjunctive filter.
// props is the property list to materialize; limit of 0 means no limit.
func (r *Repo) FindByConstraints(
	ctx context.Context, set string, constraints domain.Constraints,
	props []string, limit int, withVectors bool,
) ([]domain.Document, error) {
	cmd := query.FindDescriptor(set, query.FindParams{
		Constraints: constraints,
		Results: &query.Results{
			List:  withIDProperty(props),
			Blob:  withVectors,
			Limit: limit,
		},
	})

	resp, blobs, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("find descriptors in %q: %w", set, err)
	}
	ents := resp.Entities(query.CmdFindDescriptor)

	docs := make([]domain.Document, 0, len(ents))
	for i, ent := range ents {
		doc := domain.DocumentFromProperties(ent)
		if withVectors && i < len(blobs) {
			vec, verr := query.BytesToVector(blobs[i])
			if verr != nil {
				return nil, fmt.Errorf("find descriptors in %q: %w", set, verr)
			}
			doc.Vector = vec
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindByIDs returns the documents the set holds for the given ids, in
// server order. Missing ids simply produce no document.
func (r *Repo) FindByIDs(
	ctx context.Context, set string, ids []string, props []string, withVectors bool,
) ([]domain.Document, error) {
	var docs []domain.Document
	for start := 0; start < len(ids); start += r.batchSize {
		end := start + r.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		cmds := make([]query.Command, 0, end-start)
		for _, id := range ids[start:end] {
			cmds = append(cmds, query.FindDescriptor(set, query.FindParams{
				Constraints: domain.Constraints{
					domain.IDProperty: {Op: domain.OpEqual, Value: id},
				},
				Results: &query.Results{List: withIDProperty(props), Blob: withVectors},
			}))
		}
		resp, blobs, err := r.q.Query(ctx, cmds, nil)
		if err != nil {
			return nil, fmt.Errorf("find descriptors by id in %q: %w", set, err)
		}
		for i, ent := range resp.Entities(query.CmdFindDescriptor) {
			doc := domain.DocumentFromProperties(ent)
			if withVectors && i < len(blobs) {
				vec, verr := query.BytesToVector(blobs[i])
				if verr != nil {
					return nil, fmt.Errorf("find descriptors by id in %q: %w", set, verr)
				}
				doc.Vector = vec
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// FindNeighbors runs a KNN search and returns scored documents ordered by
// the server's distance ranking. constraints may be nil.
func (r *Repo) FindNeighbors(
	ctx context.Context, set string, vector []float32, k int,
	constraints domain.Constraints, props []string, withVectors bool,
) ([]domain.ScoredDocument, error) {
	list := withIDProperty(props)
	list = appendMissing(list, domain.DistanceProperty)
	cmd := query.FindDescriptor(set, query.FindParams{
		KNeighbors:  k,
		Constraints: constraints,
		Results:     &query.Results{List: list, Blob: withVectors},
	})

	resp, blobs, err := r.q.Query(ctx, []query.Command{cmd}, [][]byte{query.VectorToBytes(vector)})
	if err != nil {
		return nil, fmt.Errorf("find neighbors in %q: %w", set, err)
	}
	ents := resp.Entities(query.CmdFindDescriptor)

	scored := make([]domain.ScoredDocument, 0, len(ents))
	for i, ent := range ents {
		doc := domain.DocumentFromProperties(ent)
		if withVectors && i < len(blobs) {
			vec, verr := query.BytesToVector(blobs[i])
			if verr != nil {
				return nil, fmt.Errorf("find neighbors in %q: %w", set, verr)
			}
			doc.Vector = vec
		}
		scored = append(scored, domain.ScoredDocument{
			Document: doc,
			Score:    distanceOf(ent),
		})
	}
	return scored, nil
}

// DeleteByIDs marks the given documents for deletion and reports how many
// matched. Missing ids are not an error.
func (r *Repo) DeleteByIDs(ctx context.Context, set string, ids []string) (int, error) {
	matched := 0
	for start := 0; start < len(ids); start += r.batchSize {
		end := start + r.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		cmds := make([]query.Command, 0, end-start)
		for _, id := range ids[start:end] {
			cmds = append(cmds, deleteCommand(set, domain.Constraints{
				domain.IDProperty: {Op: domain.OpEqual, Value: id},
			}))
		}
		resp, _, err := r.q.Query(ctx, cmds, nil)
		if err != nil {
			return matched, fmt.Errorf("delete descriptors in %q: %w", set, err)
		}
		matched += returnedCount(resp)
	}
	return matched, nil
}

// DeleteByConstraints marks every matching document for deletion and
// reports how many matched.
func (r *Repo) DeleteByConstraints(
	ctx context.Context, set string, constraints domain.Constraints,
) (int, error) {
	cmd := deleteCommand(set, constraints)

	resp, _, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return 0, fmt.Errorf("delete descriptors in %q: %w", set, err)
	}
	return returnedCount(resp), nil
}

// Count reports how many descriptors the set holds.
func (r *Repo) Count(ctx context.Context, set string) (int, error) {
	cmd := query.FindDescriptor(set, query.FindParams{
		Results: &query.Results{List: []string{domain.IDProperty}, Count: true},
	})

	resp, _, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return 0, fmt.Errorf("count descriptors in %q: %w", set, err)
	}
	res, ok := resp.First(query.CmdFindDescriptor)
	if !ok {
		return 0, fmt.Errorf("count descriptors in %q: %w", set, resp.Err())
	}
	return res.Returned, nil
}

// deleteCommand builds the find-with-deletion-marker command the server
// interprets as a delete.
func deleteCommand(set string, constraints domain.Constraints) query.Command {
	withMarker := constraints.With(domain.DeletionProperty, domain.Condition{
		Op: domain.OpEqual, Value: 1,
	})
	return query.FindDescriptor(set, query.FindParams{
		Constraints: withMarker,
		Results:     &query.Results{List: []string{domain.IDProperty}, Count: true},
	})
}

func returnedCount(resp query.Response) int {
	total := 0
	for _, obj := range resp {
		if res, ok := obj[query.CmdFindDescriptor]; ok {
			total += res.Returned
		}
	}
	return total
}

func withIDProperty(props []string) []string {
	return appendMissing(append([]string(nil), props...), domain.IDProperty)
}

func appendMissing(list []string, key string) []string {
	for _, p := range list {
		if p == key {
			return list
		}
	}
	return append(list, key)
}

func distanceOf(ent map[string]any) float64 {
	switch v := ent[domain.DistanceProperty].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
