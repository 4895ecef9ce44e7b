package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// Verdict is a semantic classification result for one cell.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Classifier is the semantic classification collaborator, consulted for
// domain judgments that go beyond pure type checking (a negative price,
// an age past any plausible bound). It sees the column schema together
// with the value.
type Classifier interface {
	Classify(ctx context.Context, col schema.Column, value any) (Verdict, error)
}

// ConformanceChecker verifies that every cell conforms to its column's
// declared type and constraints. Structural checks (null-ness, parseable
// numbers, date formats) run locally; judgment calls are delegated to
// the classifier when one is configured.
type ConformanceChecker struct {
	classifier Classifier // nil disables semantic judgment calls
}

// NewConformanceChecker creates a checker. classifier may be nil, in
// which case only structural checks run.
func NewConformanceChecker(classifier Classifier) *ConformanceChecker {
	return &ConformanceChecker{classifier: classifier}
}

func (c *ConformanceChecker) Name() string { return "conformance" }

// Check walks the batch row by row and emits INVALID_VALUE and
// INVALID_TYPE violations. It never stops at the first defect.
func (c *ConformanceChecker) Check(ctx context.Context, batch warehouse.Batch, def schema.Definition) ([]Violation, error) {
	var violations []Violation

	for i, row := range batch {
		for _, col := range def.Columns {
			value, present := row[col.Name]
			if !present || value == nil {
				if col.Required() {
					violations = append(violations, Violation{
						RowIndex: i,
						Column:   col.Name,
						Kind:     KindInvalidValue,
						Detail:   fmt.Sprintf("column %q is NOT_NULL but the value is null", col.Name),
					})
				}
				continue
			}

			if err := checkCellType(value, col.Type); err != nil {
				violations = append(violations, Violation{
					RowIndex: i,
					Column:   col.Name,
					Kind:     KindInvalidType,
					Detail:   err.Error(),
				})
				continue
			}

			if c.classifier == nil {
				continue
			}
			verdict, err := c.classifier.Classify(ctx, col, value)
			if err != nil {
				return nil, fmt.Errorf("classify row %d column %q: %w", i, col.Name, err)
			}
			if !verdict.Valid {
				reason := verdict.Reason
				if reason == "" {
					reason = "value rejected by semantic classification"
				}
				violations = append(violations, Violation{
					RowIndex: i,
					Column:   col.Name,
					Kind:     KindInvalidValue,
					Detail:   reason,
				})
			}
		}
	}
	return violations, nil
}

// checkCellType verifies that a runtime value is representable as the
// declared column type. Strings are accepted for typed columns when they
// parse in the canonical format (dates as 2006-01-02, timestamps as
// RFC3339), mirroring what the warehouse encoder accepts.
func checkCellType(value any, t schema.ColumnType) error {
	switch t {
	case schema.TypeString:
		return nil // anything stringifies

	case schema.TypeInteger:
		switch v := value.(type) {
		case int, int64:
			return nil
		case float64:
			if v == float64(int64(v)) {
				return nil
			}
			return fmt.Errorf("expected an integer, got fractional number %v", v)
		case json.Number:
			if _, err := v.Int64(); err == nil {
				return nil
			}
		case string:
			if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return nil
			}
			return fmt.Errorf("expected an integer, got %q", v)
		}

	case schema.TypeFloat:
		switch v := value.(type) {
		case float64, int, int64:
			return nil
		case json.Number:
			if _, err := v.Float64(); err == nil {
				return nil
			}
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return nil
			}
			return fmt.Errorf("expected a number, got %q", v)
		}

	case schema.TypeBoolean:
		switch v := value.(type) {
		case bool:
			return nil
		case string:
			if _, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return nil
			}
			return fmt.Errorf("expected a boolean, got %q", v)
		}

	case schema.TypeDate:
		switch v := value.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := time.Parse("2006-01-02", strings.TrimSpace(v)); err == nil {
				return nil
			}
			return fmt.Errorf("expected a date (YYYY-MM-DD), got %q", v)
		}

	case schema.TypeTimestamp:
		switch v := value.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
				return nil
			}
			return fmt.Errorf("expected an RFC3339 timestamp, got %q", v)
		}

	case schema.TypeJSON:
		switch v := value.(type) {
		case string:
			if json.Valid([]byte(v)) {
				return nil
			}
			return fmt.Errorf("expected valid JSON, got %q", v)
		case map[string]any, []any:
			return nil
		}
	}

	return fmt.Errorf("expected %s, got %T", t, value)
}
