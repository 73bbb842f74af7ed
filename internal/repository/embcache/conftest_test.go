package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

// mockEmbedder stands in for the wrapped embedding provider.
type mockEmbedder struct {
	embedDocsFn  func(ctx context.Context, texts []string) ([][]float32, error)
	embedQueryFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedDocsFn != nil {
		return m.embedDocsFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.embedQueryFn != nil {
		return m.embedQueryFn(ctx, text)
	}
	return []float32{1, 2, 3}, nil
}

func newTestCache(t *testing.T) (*CachedEmbedder, *mockStore, *mockEmbedder) {
	t.Helper()
	ms := &mockStore{}
	me := &mockEmbedder{}
	return New(me, ms, nil, zap.NewNop()), ms, me
}
