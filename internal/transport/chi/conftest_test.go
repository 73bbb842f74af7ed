package chi

import (
	"context"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
	collectionuc "github.com/cwlacewe/vdms-go/internal/usecase/collection"
	documentuc "github.com/cwlacewe/vdms-go/internal/usecase/document"
	healthuc "github.com/cwlacewe/vdms-go/internal/usecase/health"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
)

// mockRepo implements the document and search repository contracts with
// overridable function fields.
type mockRepo struct {
	addBatchFn            func(ctx context.Context, set string, docs []domain.Document) error
	findByIDsFn           func(ctx context.Context, set string, ids, props []string, withVectors bool) ([]domain.Document, error)
	findByConstraintsFn   func(ctx context.Context, set string, constraints domain.Constraints, props []string, limit int, withVectors bool) ([]domain.Document, error)
	deleteByIDsFn         func(ctx context.Context, set string, ids []string) (int, error)
	deleteByConstraintsFn func(ctx context.Context, set string, constraints domain.Constraints) (int, error)
	countFn               func(ctx context.Context, set string) (int, error)
	findNeighborsFn       func(ctx context.Context, set string, vector []float32, k int, constraints domain.Constraints, props []string, withVectors bool) ([]domain.ScoredDocument, error)
}

func (m *mockRepo) AddBatch(ctx context.Context, set string, docs []domain.Document) error {
	if m.addBatchFn != nil {
		return m.addBatchFn(ctx, set, docs)
	}
	return nil
}

func (m *mockRepo) FindByIDs(
	ctx context.Context, set string, ids, props []string, withVectors bool,
) ([]domain.Document, error) {
	if m.findByIDsFn != nil {
		return m.findByIDsFn(ctx, set, ids, props, withVectors)
	}
	return nil, nil
}

func (m *mockRepo) FindByConstraints(
	ctx context.Context, set string, constraints domain.Constraints,
	props []string, limit int, withVectors bool,
) ([]domain.Document, error) {
	if m.findByConstraintsFn != nil {
		return m.findByConstraintsFn(ctx, set, constraints, props, limit, withVectors)
	}
	return nil, nil
}

func (m *mockRepo) DeleteByIDs(ctx context.Context, set string, ids []string) (int, error) {
	if m.deleteByIDsFn != nil {
		return m.deleteByIDsFn(ctx, set, ids)
	}
	return len(ids), nil
}

func (m *mockRepo) DeleteByConstraints(
	ctx context.Context, set string, constraints domain.Constraints,
) (int, error) {
	if m.deleteByConstraintsFn != nil {
		return m.deleteByConstraintsFn(ctx, set, constraints)
	}
	return 0, nil
}

func (m *mockRepo) Count(ctx context.Context, set string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, set)
	}
	return 0, nil
}

func (m *mockRepo) FindNeighbors(
	ctx context.Context, set string, vector []float32, k int,
	constraints domain.Constraints, props []string, withVectors bool,
) ([]domain.ScoredDocument, error) {
	if m.findNeighborsFn != nil {
		return m.findNeighborsFn(ctx, set, vector, k, constraints, props, withVectors)
	}
	return nil, nil
}

// mockSetRepo backs the collection service with a fixed property registry.
type mockSetRepo struct{}

func (mockSetRepo) Ensure(context.Context, domain.Collection) (bool, error) { return false, nil }
func (mockSetRepo) StoreIndex(context.Context, string) error                { return nil }
func (mockSetRepo) Properties(context.Context, string) ([]string, error) {
	return append([]string(nil), domain.DefaultProperties...), nil
}
func (mockSetRepo) UpdateProperties(context.Context, string, []string) error { return nil }

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
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.embedQueryFn != nil {
		return m.embedQueryFn(ctx, text)
	}
	return []float32{1, 0}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// newTestServer wires a Server over mocks and returns it with an httptest
// server mounted on the full route table.
func newTestServer(t *testing.T, repo *mockRepo) *httptest.Server {
	t.Helper()
	return newTestServerWithEmbedder(t, repo, &mockEmbedder{})
}

func newTestServerWithEmbedder(t *testing.T, repo *mockRepo, emb *mockEmbedder) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	col := domain.Collection{
		Name:       "docs",
		Engine:     domain.EngineFaissFlat,
		Metric:     domain.MetricL2,
		Dimensions: 2,
	}
	cols := collectionuc.New(mockSetRepo{}, col, logger)

	docSvc := documentuc.New(repo, cols, emb, logger)
	searchSvc := searchuc.New(repo, cols, emb, logger)
	healthSvc := healthuc.New(&mockPinger{}, nil, nil)

	srv := NewServer(docSvc, searchSvc, healthSvc, logger)
	r := chirouter.NewRouter()
	srv.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}
