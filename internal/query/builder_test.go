package query

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

func TestAddDescriptorSet(t *testing.T) {
	cmd := AddDescriptorSet(domain.Collection{
		Name:       "langchain",
		Engine:     domain.EngineFaissFlat,
		Metric:     domain.MetricL2,
		Dimensions: 4,
	})
	if cmd.Name() != CmdAddDescriptorSet {
		t.Fatalf("command name = %q", cmd.Name())
	}
	entity := cmd[CmdAddDescriptorSet].(map[string]any)
	if entity["name"] != "langchain" || entity["dimensions"] != 4 {
		t.Errorf("entity = %v", entity)
	}
	if entity["engine"] != "FaissFlat" || entity["metric"] != "L2" {
		t.Errorf("engine/metric = %v/%v", entity["engine"], entity["metric"])
	}
}

func TestAddDescriptor_SingleVsBatch(t *testing.T) {
	single := AddDescriptor("col", []map[string]any{{"a": 1}})
	entity := single[CmdAddDescriptor].(map[string]any)
	if _, ok := entity["properties"]; !ok {
		t.Error("single props should use properties")
	}
	if _, ok := entity["batch_properties"]; ok {
		t.Error("single props must not use batch_properties")
	}

	batch := AddDescriptor("col", []map[string]any{{"a": 1}, {"a": 2}})
	entity = batch[CmdAddDescriptor].(map[string]any)
	if _, ok := entity["batch_properties"]; !ok {
		t.Error("multiple props should use batch_properties")
	}
}

func TestFindDescriptor_ConstraintEncoding(t *testing.T) {
	cmd := FindDescriptor("col", FindParams{
		KNeighbors: 3,
		Constraints: domain.Constraints{
			"source": {Op: domain.OpEqual, Value: "news"},
		},
		Results: &Results{List: []string{"content"}, Blob: true, Limit: 10},
	})
	entity := cmd[CmdFindDescriptor].(map[string]any)
	if entity["k_neighbors"] != 3 {
		t.Errorf("k_neighbors = %v", entity["k_neighbors"])
	}
	constraints := entity["constraints"].(map[string]any)
	got := constraints["source"].([]any)
	want := []any{"==", "news"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("constraint = %v, want %v", got, want)
	}
	results := entity["results"].(map[string]any)
	if results["blob"] != true || results["limit"] != 10 {
		t.Errorf("results = %v", results)
	}
}

func TestFindDescriptor_OmitsEmptySections(t *testing.T) {
	cmd := FindDescriptor("col", FindParams{})
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"FindDescriptor":{"set":"col"}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestPropertyEntityRoundTrip(t *testing.T) {
	cmd, blob := AddPropertyEntity("col", []string{"content", "langchain_id", "source"})
	if string(blob) != "content,langchain_id,source" {
		t.Errorf("blob = %q", blob)
	}
	entity := cmd[CmdAddEntity].(map[string]any)
	props := entity["properties"].(map[string]any)
	if props["name"] != "col" {
		t.Errorf("props = %v", props)
	}

	find := FindPropertyEntity("col", true, false)
	entity = find[CmdFindEntity].(map[string]any)
	constraints := entity["constraints"].(map[string]any)
	if !reflect.DeepEqual(constraints["name"], []any{"==", "col"}) {
		t.Errorf("constraints = %v", constraints)
	}
	if _, ok := constraints[domain.DeletionProperty]; ok {
		t.Error("deletion constraint must be absent")
	}

	del := FindPropertyEntity("col", false, true)
	entity = del[CmdFindEntity].(map[string]any)
	constraints = entity["constraints"].(map[string]any)
	if !reflect.DeepEqual(constraints[domain.DeletionProperty], []any{"==", 1}) {
		t.Errorf("deletion constraint = %v", constraints)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	back, err := BytesToVector(VectorToBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(back, vec) {
		t.Errorf("round trip = %v, want %v", back, vec)
	}
}

func TestBytesToVector_BadLength(t *testing.T) {
	if _, err := BytesToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestConcatVectors(t *testing.T) {
	blob := ConcatVectors([][]float32{{1, 2}, {3, 4}})
	if len(blob) != 16 {
		t.Fatalf("blob length = %d, want 16", len(blob))
	}
	back, _ := BytesToVector(blob)
	if !reflect.DeepEqual(back, []float32{1, 2, 3, 4}) {
		t.Errorf("concat = %v", back)
	}
}

func TestParseResponse_ArrayAndObject(t *testing.T) {
	arr := []byte(`[{"FindDescriptor":{"status":0,"returned":1,"entities":[{"langchain_id":"a"}]}}]`)
	resp, err := ParseResponse(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := resp.First(CmdFindDescriptor)
	if !ok || res.Returned != 1 {
		t.Errorf("first = %+v, ok=%v", res, ok)
	}

	obj := []byte(`{"AddDescriptor":{"status":0}}`)
	resp, err = ParseResponse(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := resp.First(CmdAddDescriptor); !ok {
		t.Error("single object response not parsed")
	}
}

func TestResponse_Err(t *testing.T) {
	resp := Response{{CmdFailed: {Info: "out of space", Status: -1}}}
	if err := resp.Err(); err == nil {
		t.Fatal("expected error")
	}
	ok := Response{{CmdAddDescriptor: {Status: 0}}}
	if err := ok.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResponse_Entities_RequiresID(t *testing.T) {
	resp := Response{{CmdFindDescriptor: {
		Returned: 2,
		Entities: []map[string]any{
			{domain.IDProperty: "a", "content": "x"},
			{"content": "orphan"},
		},
	}}}
	ents := resp.Entities(CmdFindDescriptor)
	if len(ents) != 1 || ents[0][domain.IDProperty] != "a" {
		t.Errorf("entities = %v", ents)
	}
}
