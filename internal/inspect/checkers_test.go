package inspect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// fakeDetector labels any text containing "@" as an email address and
// records what it was asked to scan.
type fakeDetector struct {
	scanned []string
	err     error
}

func (d *fakeDetector) Detect(_ context.Context, text string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.scanned = append(d.scanned, text)
	if strings.Contains(text, "@") {
		return []string{"EMAIL_ADDRESS"}, nil
	}
	return nil, nil
}

// fakeClassifier rejects negative numeric values.
type fakeClassifier struct {
	err error
}

func (c fakeClassifier) Classify(_ context.Context, col schema.Column, value any) (Verdict, error) {
	if c.err != nil {
		return Verdict{}, c.err
	}
	if n, ok := value.(int); ok && n < 0 {
		return Verdict{Valid: false, Reason: "value must not be negative"}, nil
	}
	return Verdict{Valid: true}, nil
}

func TestSensitiveDataCheckerFindsEmail(t *testing.T) {
	def := schema.Definition{
		MasterName: "customers",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeString, SecurityLevel: schema.LevelPublic},
			{Name: "email", Type: schema.TypeString, SecurityLevel: schema.LevelCaution},
		},
	}
	batch := warehouse.Batch{{"id": "C001", "email": "a@x.com"}}

	detector := &fakeDetector{}
	checker := NewSensitiveDataChecker(detector)

	got, err := checker.Check(context.Background(), batch, def)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Check returned %d violations, want exactly 1", len(got))
	}
	v := got[0]
	if v.RowIndex != 0 || v.Column != "email" || v.Kind != KindSensitiveData {
		t.Errorf("violation = %+v", v)
	}

	// Only the level-B column was scanned; the public id column never
	// reached the detector.
	for _, text := range detector.scanned {
		if text == "C001" {
			t.Error("public column was sent to the detector")
		}
	}
}

func TestSensitiveDataCheckerSkipsPublicOnlySchemas(t *testing.T) {
	def := schema.Definition{
		MasterName: "products",
		Columns: []schema.Column{
			{Name: "sku", Type: schema.TypeString, SecurityLevel: schema.LevelPublic},
		},
	}
	detector := &fakeDetector{}
	checker := NewSensitiveDataChecker(detector)

	got, err := checker.Check(context.Background(), warehouse.Batch{{"sku": "a@x.com"}}, def)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 0 || len(detector.scanned) != 0 {
		t.Errorf("public-only schema triggered detector: violations=%v scanned=%v", got, detector.scanned)
	}
}

func TestSensitiveDataCheckerSkipsNulls(t *testing.T) {
	def := schema.Definition{
		MasterName: "customers",
		Columns: []schema.Column{
			{Name: "address", Type: schema.TypeString, SecurityLevel: schema.LevelConfidential},
		},
	}
	detector := &fakeDetector{}
	checker := NewSensitiveDataChecker(detector)

	batch := warehouse.Batch{{"address": nil}, {}}
	if _, err := checker.Check(context.Background(), batch, def); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(detector.scanned) != 0 {
		t.Errorf("null cells were scanned: %v", detector.scanned)
	}
}

func TestSensitiveDataCheckerPropagatesDetectorError(t *testing.T) {
	def := schema.Definition{
		MasterName: "customers",
		Columns:    []schema.Column{{Name: "email", Type: schema.TypeString, SecurityLevel: schema.LevelCaution}},
	}
	checker := NewSensitiveDataChecker(&fakeDetector{err: errors.New("quota exceeded")})

	_, err := checker.Check(context.Background(), warehouse.Batch{{"email": "a@x.com"}}, def)
	if err == nil {
		t.Fatal("Check did not surface the detector error")
	}
}

func TestConformanceCheckerEnumeratesAllDefects(t *testing.T) {
	def := schema.Definition{
		MasterName: "people",
		Columns: []schema.Column{
			{Name: "name", Type: schema.TypeString, Constraints: []schema.Constraint{schema.NotNull}, SecurityLevel: schema.LevelPublic},
			{Name: "age", Type: schema.TypeInteger, SecurityLevel: schema.LevelPublic},
		},
	}
	batch := warehouse.Batch{
		{"name": "Taro", "age": 30},           // clean
		{"name": nil, "age": "not-a-number"},  // two defects
		{"name": "Hanako", "age": -5},         // one defect (classifier)
	}

	checker := NewConformanceChecker(fakeClassifier{})
	got, err := checker.Check(context.Background(), batch, def)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Check returned %d violations, want 3: %v", len(got), got)
	}

	byKind := map[Kind]int{}
	for _, v := range got {
		byKind[v.Kind]++
		if v.RowIndex == 0 {
			t.Errorf("clean row flagged: %+v", v)
		}
	}
	if byKind[KindInvalidValue] != 2 || byKind[KindInvalidType] != 1 {
		t.Errorf("violation kinds = %v", byKind)
	}
}

func TestConformanceCheckerCellTypes(t *testing.T) {
	tests := []struct {
		name  string
		ctype schema.ColumnType
		value any
		valid bool
	}{
		{"string accepts anything", schema.TypeString, 42, true},
		{"integer from int", schema.TypeInteger, 7, true},
		{"integer from integral float", schema.TypeInteger, float64(7), true},
		{"integer rejects fraction", schema.TypeInteger, 7.5, false},
		{"integer from numeric string", schema.TypeInteger, "12", true},
		{"integer rejects text", schema.TypeInteger, "twelve", false},
		{"float from string", schema.TypeFloat, "1.25", true},
		{"bool from bool", schema.TypeBoolean, true, true},
		{"bool from string", schema.TypeBoolean, "false", true},
		{"bool rejects number", schema.TypeBoolean, 1, false},
		{"date ok", schema.TypeDate, "2025-04-01", true},
		{"date rejects other format", schema.TypeDate, "04/01/2025", false},
		{"timestamp ok", schema.TypeTimestamp, "2025-04-01T09:30:00Z", true},
		{"timestamp rejects date-only", schema.TypeTimestamp, "2025-04-01", false},
		{"json string ok", schema.TypeJSON, `{"k":1}`, true},
		{"json rejects malformed", schema.TypeJSON, `{"k":`, false},
		{"json map ok", schema.TypeJSON, map[string]any{"k": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := schema.Definition{
				MasterName: "m",
				Columns:    []schema.Column{{Name: "c", Type: tt.ctype, SecurityLevel: schema.LevelPublic}},
			}
			checker := NewConformanceChecker(nil)
			got, err := checker.Check(context.Background(), warehouse.Batch{{"c": tt.value}}, def)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if tt.valid && len(got) != 0 {
				t.Errorf("value %v flagged: %v", tt.value, got)
			}
			if !tt.valid && len(got) != 1 {
				t.Errorf("value %v not flagged", tt.value)
			}
		})
	}
}

func TestConformanceCheckerNullableColumnAcceptsNull(t *testing.T) {
	def := schema.Definition{
		MasterName: "m",
		Columns:    []schema.Column{{Name: "note", Type: schema.TypeString, SecurityLevel: schema.LevelPublic}},
	}
	checker := NewConformanceChecker(nil)
	got, err := checker.Check(context.Background(), warehouse.Batch{{"note": nil}, {}}, def)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("nullable null flagged: %v", got)
	}
}

func TestConformanceCheckerPropagatesClassifierError(t *testing.T) {
	def := schema.Definition{
		MasterName: "m",
		Columns:    []schema.Column{{Name: "age", Type: schema.TypeInteger, SecurityLevel: schema.LevelPublic}},
	}
	checker := NewConformanceChecker(fakeClassifier{err: errors.New("endpoint down")})

	_, err := checker.Check(context.Background(), warehouse.Batch{{"age": 1}}, def)
	if err == nil {
		t.Fatal("Check did not surface the classifier error")
	}
}
