package document

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	added          []domain.Document
	addErr         error
	deletedIDs     []string
	deleteIDsN     int
	deleteIDsErr   error
	deletedCons    domain.Constraints
	deleteConsN    int
	deleteConsErr  error
	findByIDs      []domain.Document
	findByIDsErr   error
	findByCons     []domain.Document
	findByConsErr  error
	countResult    int
	countErr       error
}

func (m *mockRepo) AddBatch(_ context.Context, _ string, docs []domain.Document) error {
	m.added = append(m.added, docs...)
	return m.addErr
}

func (m *mockRepo) FindByIDs(_ context.Context, _ string, _ []string, _ []string, _ bool) ([]domain.Document, error) {
	return m.findByIDs, m.findByIDsErr
}

func (m *mockRepo) FindByConstraints(
	_ context.Context, _ string, _ domain.Constraints, _ []string, _ int, _ bool,
) ([]domain.Document, error) {
	return m.findByCons, m.findByConsErr
}

func (m *mockRepo) DeleteByIDs(_ context.Context, _ string, ids []string) (int, error) {
	m.deletedIDs = append(m.deletedIDs, ids...)
	return m.deleteIDsN, m.deleteIDsErr
}

func (m *mockRepo) DeleteByConstraints(_ context.Context, _ string, c domain.Constraints) (int, error) {
	m.deletedCons = c
	return m.deleteConsN, m.deleteConsErr
}

func (m *mockRepo) Count(_ context.Context, _ string) (int, error) {
	return m.countResult, m.countErr
}

type mockCols struct {
	col         domain.Collection
	props       []string
	extended    []string
	extendErr   error
	storedIndex int
}

func (m *mockCols) Collection() domain.Collection { return m.col }

func (m *mockCols) Properties(_ context.Context) ([]string, error) {
	return m.props, nil
}

func (m *mockCols) Extend(_ context.Context, keys []string) error {
	m.extended = append(m.extended, keys...)
	return m.extendErr
}

func (m *mockCols) StoreIndex(_ context.Context) error {
	m.storedIndex++
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3, 4}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockCols, *mockEmbedder) {
	t.Helper()
	repo := &mockRepo{}
	cols := &mockCols{
		col: domain.Collection{
			Name:       "notes",
			Engine:     domain.EngineFaissFlat,
			Metric:     domain.MetricL2,
			Dimensions: 4,
		},
		props: []string{"content", "langchain_id"},
	}
	emb := &mockEmbedder{}
	return New(repo, cols, emb, zap.NewNop()), repo, cols, emb
}

// --- Add ---

func TestAdd_GeneratesIDsAndEmbeds(t *testing.T) {
	svc, repo, cols, _ := newTestService(t)

	ids, err := svc.Add(context.Background(), []domain.Document{
		{Content: "first"},
		{ID: "given", Content: "second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] == "" || ids[1] != "given" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if len(repo.added) != 2 {
		t.Fatalf("expected 2 added docs, got %d", len(repo.added))
	}
	for _, doc := range repo.added {
		if len(doc.Vector) != 4 {
			t.Fatalf("expected embedded vector, got %v", doc.Vector)
		}
	}
	if len(cols.extended) == 0 {
		t.Fatal("expected property registry extension")
	}
}

func TestAdd_ReplacesExistingIDs(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), []domain.Document{{ID: "dup", Content: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != "dup" {
		t.Fatalf("expected delete of existing id, got %v", repo.deletedIDs)
	}
}

func TestAdd_KeepsProvidedVectors(t *testing.T) {
	svc, repo, _, emb := newTestService(t)

	emb.embedFn = func(_ context.Context, texts []string) ([][]float32, error) {
		t.Fatalf("embedder called for pre-vectorized docs: %v", texts)
		return nil, nil
	}

	_, err := svc.Add(context.Background(), []domain.Document{
		{Content: "x", Vector: []float32{9, 9, 9, 9}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.added[0].Vector[0] != 9 {
		t.Fatalf("expected provided vector kept, got %v", repo.added[0].Vector)
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), []domain.Document{
		{Content: "x", Vector: []float32{1, 2}},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdd_DropsListMetadata(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), []domain.Document{
		{Content: "x", Metadata: map[string]any{
			"topic": "news",
			"tags":  []string{"a", "b"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.added[0].Metadata["tags"]; ok {
		t.Fatal("expected list metadata dropped")
	}
	if repo.added[0].Metadata["topic"] != "news" {
		t.Fatal("expected scalar metadata kept")
	}
}

func TestAdd_EmbedderError(t *testing.T) {
	svc, _, _, emb := newTestService(t)

	emb.embedFn = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("rate limited")
	}

	_, err := svc.Add(context.Background(), []domain.Document{{Content: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- Update ---

func TestUpdate_RequiresExistingIDs(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.findByIDs = []domain.Document{{ID: "a"}}

	err := svc.Update(context.Background(), []domain.Document{
		{ID: "a", Content: "x"},
		{ID: "missing", Content: "y"},
	})
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if len(repo.added) != 0 {
		t.Fatal("expected no writes on failed existence check")
	}
}

func TestUpdate_ReplacesAndStoresIndex(t *testing.T) {
	svc, repo, cols, _ := newTestService(t)
	repo.findByIDs = []domain.Document{{ID: "a"}}

	err := svc.Update(context.Background(), []domain.Document{{ID: "a", Content: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deletedIDs) != 1 || len(repo.added) != 1 {
		t.Fatalf("expected delete+add, got deleted=%v added=%d", repo.deletedIDs, len(repo.added))
	}
	if cols.storedIndex != 1 {
		t.Fatalf("expected index store after update, got %d", cols.storedIndex)
	}
}

func TestUpdate_RequiresIDs(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Update(context.Background(), []domain.Document{{Content: "x"}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- Delete ---

func TestDelete_ByIDsIdempotent(t *testing.T) {
	svc, repo, cols, _ := newTestService(t)
	repo.deleteIDsN = 0

	matched, err := svc.Delete(context.Background(), []string{"ghost"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matched != 0 {
		t.Fatalf("expected 0 matched, got %d", matched)
	}
	if cols.storedIndex != 0 {
		t.Fatal("expected no index store when nothing matched")
	}
}

func TestDelete_ByConstraints(t *testing.T) {
	svc, repo, cols, _ := newTestService(t)
	repo.deleteConsN = 2

	matched, err := svc.Delete(context.Background(), nil,
		domain.Constraints{"topic": {Op: domain.OpEqual, Value: "old"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matched != 2 {
		t.Fatalf("expected 2 matched, got %d", matched)
	}
	if cols.storedIndex != 1 {
		t.Fatal("expected index store after deletion")
	}
}

func TestDelete_AllWithoutArguments(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.deleteConsN = 5

	matched, err := svc.Delete(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matched != 5 {
		t.Fatalf("expected 5 matched, got %d", matched)
	}
	cond, ok := repo.deletedCons[domain.IDProperty]
	if !ok || cond.Op != domain.OpNotEqual {
		t.Fatalf("expected any-id constraint, got %v", repo.deletedCons)
	}
}

func TestDelete_InvalidConstraint(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Delete(context.Background(), nil,
		domain.Constraints{"topic": {Op: "~=", Value: "x"}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- Reads ---

func TestGetByIDs(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.findByIDs = []domain.Document{{ID: "a", Content: "hello"}}

	docs, err := svc.GetByIDs(context.Background(), []string{"a"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestGetByConstraints_InvalidOperator(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetByConstraints(context.Background(),
		domain.Constraints{"x": {Op: "in", Value: 1}}, 0, false)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCount(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.countResult = 7

	n, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}
