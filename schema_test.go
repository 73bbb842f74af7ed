package vdms

import (
	"strings"
	"testing"
)

type article struct {
	ID     string `vdms:",id"`
	Body   string `vdms:",content"`
	Topic  string `vdms:"topic"`
	Rating int    `vdms:"rating"`
	Hidden string
	Skip   string `vdms:"-"`
}

func TestParseSchema(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}
	if meta.idIdx != 0 || meta.contentIdx != 1 {
		t.Fatalf("unexpected id/content indexes: %d, %d", meta.idIdx, meta.contentIdx)
	}
	if len(meta.metaFields) != 2 {
		t.Fatalf("expected 2 metadata fields, got %d", len(meta.metaFields))
	}
	if meta.metaFields[0].name != "topic" || meta.metaFields[1].name != "rating" {
		t.Fatalf("unexpected metadata names: %+v", meta.metaFields)
	}
}

func TestParseSchema_PointerType(t *testing.T) {
	if _, err := parseSchema[*article](); err != nil {
		t.Fatalf("parseSchema on pointer type: %v", err)
	}
}

func TestParseSchema_Errors(t *testing.T) {
	type noID struct {
		Body string `vdms:",content"`
	}
	if _, err := parseSchema[noID](); err == nil || !strings.Contains(err.Error(), "no") {
		t.Fatalf("expected missing id error, got %v", err)
	}

	type duplicateID struct {
		A string `vdms:",id"`
		B string `vdms:",id"`
	}
	if _, err := parseSchema[duplicateID](); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	type numericID struct {
		A int `vdms:",id"`
	}
	if _, err := parseSchema[numericID](); err == nil || !strings.Contains(err.Error(), "string") {
		t.Fatalf("expected string id error, got %v", err)
	}

	type badModifier struct {
		A string `vdms:",primary"`
	}
	if _, err := parseSchema[badModifier](); err == nil || !strings.Contains(err.Error(), "modifier") {
		t.Fatalf("expected unknown modifier error, got %v", err)
	}

	if _, err := parseSchema[int](); err == nil {
		t.Fatal("expected non-struct error")
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}

	in := article{ID: "a1", Body: "hello", Topic: "go", Rating: 5, Hidden: "x"}
	doc := meta.toDocument(in)

	if doc.ID != "a1" || doc.Content != "hello" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Metadata["topic"] != "go" || doc.Metadata["rating"] != 5 {
		t.Fatalf("unexpected metadata: %v", doc.Metadata)
	}
	if _, ok := doc.Metadata["Hidden"]; ok {
		t.Fatal("untagged field leaked into metadata")
	}

	// Numbers come back from the server as float64.
	doc.Metadata["rating"] = float64(5)

	out, err := meta.fromDocument(doc)
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	got := out.(article)
	if got.ID != "a1" || got.Body != "hello" || got.Topic != "go" || got.Rating != 5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Hidden != "" {
		t.Fatalf("untagged field restored: %+v", got)
	}
}

func TestSchemaFromDocument_TypeMismatch(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}

	_, err = meta.fromDocument(Document{
		ID:       "a1",
		Metadata: map[string]any{"rating": "not a number"},
	})
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
}
