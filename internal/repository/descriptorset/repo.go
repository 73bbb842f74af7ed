// Package descriptorset manages descriptor set lifecycle and the
// per-collection property registry stored alongside it.
package descriptorset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cwlacewe/vdms-go/internal/domain"
	"github.com/cwlacewe/vdms-go/internal/query"
)

// querier is the consumer interface of the repository (ISP).
type querier interface {
	Query(ctx context.Context, cmds []query.Command, blobs [][]byte) (query.Response, [][]byte, error)
}

// Repo manipulates descriptor sets over a VDMS connection.
type Repo struct {
	q querier
}

// New creates a descriptor set repository.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// Ensure creates the descriptor set for the collection if it does not
// exist yet. It reports whether the set was created by this call.
func (r *Repo) Ensure(ctx context.Context, col domain.Collection) (bool, error) {
	if err := col.Engine.Validate(); err != nil {
		return false, err
	}
	if err := col.Metric.Validate(); err != nil {
		return false, err
	}
	cmd := query.AddDescriptorSet(col)

	resp, _, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return false, fmt.Errorf("add descriptor set %q: %w", col.Name, err)
	}
	res, ok := resp.First(query.CmdAddDescriptorSet)
	if !ok {
		return false, fmt.Errorf("add descriptor set %q: %w: %v",
			col.Name, domain.ErrCollectionFailed, resp.Err())
	}
	// Status 0 means the set was created; any other success status
	// means it already existed.
	return res.Status == 0, nil
}

// StoreIndex asks the server to persist the set index to disk. Callers
// invoke it after deletions so removed descriptors do not resurface.
func (r *Repo) StoreIndex(ctx context.Context, name string) error {
	cmd := query.FindDescriptorSet(name, true)

	resp, _, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return fmt.Errorf("store index %q: %w", name, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("store index %q: %w", name, err)
	}
	return nil
}

// Properties returns the registered property names for the collection.
// A collection with no registry entry reports the default properties.
func (r *Repo) Properties(ctx context.Context, collection string) ([]string, error) {
	cmd := query.FindPropertyEntity(collection, true, false)

	resp, blobs, err := r.q.Query(ctx, []query.Command{cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("find properties %q: %w", collection, err)
	}
	if resp.Failed() || len(blobs) == 0 || len(blobs[0]) == 0 {
		props := append([]string(nil), domain.DefaultProperties...)
		sort.Strings(props)
		return props, nil
	}
	props := strings.Split(string(blobs[0]), ",")
	sort.Strings(props)
	return props, nil
}

// UpdateProperties replaces the property registry for the collection.
// The previous registry entity, if any, is deleted in the same query.
func (r *Repo) UpdateProperties(ctx context.Context, collection string, props []string) error {
	sorted := append([]string(nil), props...)
	sort.Strings(sorted)

	del := query.FindPropertyEntity(collection, false, true)
	add, blob := query.AddPropertyEntity(collection, sorted)

	resp, _, err := r.q.Query(ctx, []query.Command{del, add}, [][]byte{blob})
	if err != nil {
		return fmt.Errorf("update properties %q: %w", collection, err)
	}
	// The delete half may legitimately match nothing on first write, so
	// only the AddEntity outcome decides success.
	for _, obj := range resp {
		if res, ok := obj[query.CmdAddEntity]; ok {
			if res.Status != 0 {
				return fmt.Errorf("update properties %q: status %d: %s: %w",
					collection, res.Status, res.Info, domain.ErrServerError)
			}
			return nil
		}
		if res, ok := obj[query.CmdFailed]; ok {
			return fmt.Errorf("update properties %q: %s: %w",
				collection, res.Info, domain.ErrServerError)
		}
	}
	return nil
}
