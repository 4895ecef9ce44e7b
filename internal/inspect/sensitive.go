package inspect

import (
	"context"
	"fmt"
	"strings"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// Detector is the sensitive-data detection collaborator. Detect returns
// the finding labels matched in the given text (for example
// "EMAIL_ADDRESS"), or an empty slice when nothing matched. It is a pure
// function of its input.
type Detector interface {
	Detect(ctx context.Context, text string) ([]string, error)
}

// SensitiveDataChecker scans cell contents for sensitive-information
// exposure. It is schema-aware: only columns classified A (confidential)
// or B (caution) are scanned; a public column never reaches the
// detector.
type SensitiveDataChecker struct {
	detector Detector
}

// NewSensitiveDataChecker creates a checker over the given detector.
func NewSensitiveDataChecker(d Detector) *SensitiveDataChecker {
	return &SensitiveDataChecker{detector: d}
}

func (c *SensitiveDataChecker) Name() string { return "sensitive_data" }

// Check scans every non-null cell of every sensitive column, row by row
// in batch order. Each label the detector reports becomes one
// SENSITIVE_DATA_FOUND violation at that row and column.
func (c *SensitiveDataChecker) Check(ctx context.Context, batch warehouse.Batch, def schema.Definition) ([]Violation, error) {
	var sensitive []schema.Column
	for _, col := range def.Columns {
		if col.SecurityLevel.Sensitive() {
			sensitive = append(sensitive, col)
		}
	}
	if len(sensitive) == 0 {
		return nil, nil
	}

	var violations []Violation
	for i, row := range batch {
		for _, col := range sensitive {
			value, ok := row[col.Name]
			if !ok || value == nil {
				continue
			}
			text := fmt.Sprint(value)
			if strings.TrimSpace(text) == "" {
				continue
			}

			labels, err := c.detector.Detect(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("detect row %d column %q: %w", i, col.Name, err)
			}
			for _, label := range labels {
				violations = append(violations, Violation{
					RowIndex: i,
					Column:   col.Name,
					Kind:     KindSensitiveData,
					Detail: fmt.Sprintf("detected %s in level-%s column %q",
						label, col.SecurityLevel, col.Name),
				})
			}
		}
	}
	return violations, nil
}
