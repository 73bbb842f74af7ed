package descriptorset

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cwlacewe/vdms-go/internal/domain"
	"github.com/cwlacewe/vdms-go/internal/query"
)

func testCollection() domain.Collection {
	return domain.Collection{
		Name:       "notes",
		Engine:     domain.EngineFaissFlat,
		Metric:     domain.MetricL2,
		Dimensions: 4,
	}
}

// --- Ensure ---

func TestEnsure_Creates(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, cmds []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		if len(cmds) != 1 || cmds[0].Name() != query.CmdAddDescriptorSet {
			t.Errorf("unexpected commands: %v", cmds)
		}
		return okResponse(query.CmdAddDescriptorSet), nil, nil
	}

	created, err := repo.Ensure(context.Background(), testCollection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for new set")
	}
}

func TestEnsure_AlreadyExists(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return query.Response{{query.CmdAddDescriptorSet: query.CommandResult{
			Status: 1, Info: "Set already exists",
		}}}, nil, nil
	}

	created, err := repo.Ensure(context.Background(), testCollection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for existing set")
	}
}

func TestEnsure_FailedCommand(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return query.Response{{query.CmdFailed: query.CommandResult{
			Status: -1, Info: "bad engine",
		}}}, nil, nil
	}

	_, err := repo.Ensure(context.Background(), testCollection())
	if !errors.Is(err, domain.ErrCollectionFailed) {
		t.Fatalf("expected ErrCollectionFailed, got %v", err)
	}
}

func TestEnsure_InvalidEngine(t *testing.T) {
	repo, _ := newTestRepo(t)

	col := testCollection()
	col.Engine = "Annoy"

	_, err := repo.Ensure(context.Background(), col)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- StoreIndex ---

func TestStoreIndex(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, cmds []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		body, _ := cmds[0][query.CmdFindDescriptorSet].(map[string]any)
		if body["storeIndex"] != true {
			t.Errorf("expected storeIndex=true, got %v", body)
		}
		return okResponse(query.CmdFindDescriptorSet), nil, nil
	}

	if err := repo.StoreIndex(context.Background(), "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStoreIndex_ServerError(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return query.Response{{query.CmdFindDescriptorSet: query.CommandResult{
			Status: -1, Info: "set not found",
		}}}, nil, nil
	}

	err := repo.StoreIndex(context.Background(), "notes")
	if !errors.Is(err, domain.ErrServerError) {
		t.Fatalf("expected ErrServerError, got %v", err)
	}
}

// --- Properties ---

func TestProperties_FromRegistry(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return okResponse(query.CmdFindEntity), [][]byte{[]byte("topic,langchain_id,content")}, nil
	}

	props, err := repo.Properties(context.Background(), "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"content", "langchain_id", "topic"}
	if !reflect.DeepEqual(props, want) {
		t.Fatalf("got %v, want %v", props, want)
	}
}

func TestProperties_DefaultsWhenMissing(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return query.Response{{query.CmdFindEntity: query.CommandResult{Status: -1}}}, nil, nil
	}

	props, err := repo.Properties(context.Background(), "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(props) != len(domain.DefaultProperties) {
		t.Fatalf("expected default properties, got %v", props)
	}
}

// --- UpdateProperties ---

func TestUpdateProperties(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, cmds []query.Command, blobs [][]byte) (query.Response, [][]byte, error) {
		if len(cmds) != 2 {
			t.Fatalf("expected delete+add pair, got %d commands", len(cmds))
		}
		if cmds[0].Name() != query.CmdFindEntity || cmds[1].Name() != query.CmdAddEntity {
			t.Errorf("unexpected command order: %s, %s", cmds[0].Name(), cmds[1].Name())
		}
		if len(blobs) != 1 || string(blobs[0]) != "content,langchain_id,topic" {
			t.Errorf("unexpected blob: %q", blobs)
		}
		return query.Response{
			{query.CmdFindEntity: query.CommandResult{Status: -1}},
			{query.CmdAddEntity: query.CommandResult{Status: 0}},
		}, nil, nil
	}

	err := repo.UpdateProperties(context.Background(), "notes", []string{"topic", "langchain_id", "content"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateProperties_AddFails(t *testing.T) {
	repo, mq := newTestRepo(t)

	mq.queryFn = func(_ context.Context, _ []query.Command, _ [][]byte) (query.Response, [][]byte, error) {
		return query.Response{{query.CmdAddEntity: query.CommandResult{Status: -1, Info: "no space"}}}, nil, nil
	}

	err := repo.UpdateProperties(context.Background(), "notes", []string{"topic"})
	if !errors.Is(err, domain.ErrServerError) {
		t.Fatalf("expected ErrServerError, got %v", err)
	}
}
