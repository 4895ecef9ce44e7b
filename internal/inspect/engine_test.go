package inspect

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// stubChecker returns canned violations or a canned error.
type stubChecker struct {
	name       string
	violations []Violation
	err        error
	panicWith  any
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(_ context.Context, _ warehouse.Batch, _ schema.Definition) ([]Violation, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.violations, s.err
}

func testDef() schema.Definition {
	return schema.Definition{
		MasterName: "customers",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeString, SecurityLevel: schema.LevelPublic},
		},
	}
}

func TestInspectPoolsAllCheckers(t *testing.T) {
	a := stubChecker{name: "a", violations: []Violation{
		{RowIndex: 0, Column: "id", Kind: KindInvalidType, Detail: "a0"},
		{RowIndex: 2, Column: "id", Kind: KindInvalidType, Detail: "a2"},
	}}
	b := stubChecker{name: "b", violations: []Violation{
		{RowIndex: 1, Column: "id", Kind: KindSensitiveData, Detail: "b1"},
	}}

	engine := NewEngine(a, b)
	got := engine.Inspect(context.Background(), warehouse.Batch{{}, {}, {}}, testDef())

	if len(got) != 3 {
		t.Fatalf("Inspect returned %d violations, want 3", len(got))
	}
	// Registration order across checkers, row order within a checker.
	wantDetails := []string{"a0", "a2", "b1"}
	for i, v := range got {
		if v.Detail != wantDetails[i] {
			t.Errorf("violation %d = %q, want %q", i, v.Detail, wantDetails[i])
		}
	}
}

func TestInspectCleanBatch(t *testing.T) {
	engine := NewEngine(stubChecker{name: "a"}, stubChecker{name: "b"})
	got := engine.Inspect(context.Background(), warehouse.Batch{{}}, testDef())
	if len(got) != 0 {
		t.Errorf("Inspect = %v, want empty", got)
	}
}

func TestCheckerErrorIsIsolated(t *testing.T) {
	failing := stubChecker{name: "detector", err: errors.New("service unreachable")}
	healthy := stubChecker{name: "conformance", violations: []Violation{
		{RowIndex: 0, Column: "id", Kind: KindInvalidValue, Detail: "bad"},
	}}

	engine := NewEngine(failing, healthy)
	got := engine.Inspect(context.Background(), warehouse.Batch{{}}, testDef())

	if len(got) != 2 {
		t.Fatalf("Inspect returned %d violations, want 2 (checker error + real finding)", len(got))
	}

	errV := got[0]
	if errV.Kind != KindCheckerError || errV.RowIndex != BatchLevel || errV.Column != BatchColumn {
		t.Errorf("checker failure folded as %+v", errV)
	}
	if got[1].Detail != "bad" {
		t.Error("healthy checker result missing: failure was not isolated")
	}
}

func TestCheckerPanicIsIsolated(t *testing.T) {
	engine := NewEngine(
		stubChecker{name: "wild", panicWith: "boom"},
		stubChecker{name: "calm"},
	)
	got := engine.Inspect(context.Background(), warehouse.Batch{{}}, testDef())

	if len(got) != 1 || got[0].Kind != KindCheckerError {
		t.Fatalf("Inspect = %v, want single CHECKER_ERROR", got)
	}
}

func TestInspectIdempotent(t *testing.T) {
	engine := NewEngine(
		stubChecker{name: "a", violations: []Violation{{RowIndex: 0, Column: "id", Kind: KindInvalidType, Detail: "x"}}},
		stubChecker{name: "b", violations: []Violation{{RowIndex: 1, Column: "id", Kind: KindInvalidValue, Detail: "y"}}},
	)
	batch := warehouse.Batch{{"id": "1"}, {"id": "2"}}
	def := testDef()

	first := engine.Inspect(context.Background(), batch, def)
	second := engine.Inspect(context.Background(), batch, def)

	sortViolations(first)
	sortViolations(second)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated inspection differs:\n%v\n%v", first, second)
	}
}

func sortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].RowIndex != vs[j].RowIndex {
			return vs[i].RowIndex < vs[j].RowIndex
		}
		return vs[i].Detail < vs[j].Detail
	})
}
