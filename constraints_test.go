package vdms

import (
	"testing"

	"github.com/cwlacewe/vdms-go/internal/domain"
)

func TestConditionConstructors(t *testing.T) {
	cases := []struct {
		cond   Condition
		wantOp string
	}{
		{Eq("a"), "=="},
		{Ne("a"), "!="},
		{Gt(1), ">"},
		{Gte(1), ">="},
		{Lt(1), "<"},
		{Lte(1), "<="},
	}
	for _, tc := range cases {
		if tc.cond.Op != tc.wantOp {
			t.Errorf("expected op %q, got %q", tc.wantOp, tc.cond.Op)
		}
	}
}

func TestConstraintsToDomain(t *testing.T) {
	filter := Constraints{
		"year":  Gte(2020),
		"topic": Eq("news"),
	}

	got := filter.toDomain()
	if len(got) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(got))
	}
	if got["year"].Op != domain.OpGreaterOrEqual || got["year"].Value != 2020 {
		t.Fatalf("unexpected year condition: %+v", got["year"])
	}
	if got["topic"].Op != domain.OpEqual || got["topic"].Value != "news" {
		t.Fatalf("unexpected topic condition: %+v", got["topic"])
	}
}

func TestConstraintsToDomain_Empty(t *testing.T) {
	if Constraints(nil).toDomain() != nil {
		t.Fatal("nil constraints should map to nil")
	}
	if (Constraints{}).toDomain() != nil {
		t.Fatal("empty constraints should map to nil")
	}
}
