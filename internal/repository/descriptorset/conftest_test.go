package descriptorset

import (
	"context"
	"testing"

	"github.com/cwlacewe/vdms-go/internal/query"
)

// mockQuerier implements the consumer interface for tests.
type mockQuerier struct {
	queryFn func(ctx context.Context, cmds []query.Command, blobs [][]byte) (query.Response, [][]byte, error)
}

func (m *mockQuerier) Query(
	ctx context.Context, cmds []query.Command, blobs [][]byte,
) (query.Response, [][]byte, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, cmds, blobs)
	}
	return query.Response{}, nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockQuerier) {
	t.Helper()
	mq := &mockQuerier{}
	return New(mq), mq
}

func okResponse(cmd string) query.Response {
	return query.Response{{cmd: query.CommandResult{Status: 0}}}
}
