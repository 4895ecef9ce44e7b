// Package inspect runs governance checks over a data batch before it is
// allowed to reach storage. Independent checkers each produce a list of
// violations; the engine pools them so a caller sees every defect at
// once instead of fixing one problem per round trip.
package inspect

import "fmt"

// Kind classifies what a violation reports.
type Kind string

const (
	KindSensitiveData Kind = "SENSITIVE_DATA_FOUND"
	KindInvalidValue  Kind = "INVALID_VALUE"
	KindInvalidType   Kind = "INVALID_TYPE"
	KindCheckerError  Kind = "CHECKER_ERROR"
)

// BatchLevel is the RowIndex sentinel for violations that apply to the
// batch as a whole rather than a specific row.
const BatchLevel = -1

// BatchColumn is the Column placeholder for batch-level violations.
const BatchColumn = "N/A"

// Violation is one reported defect. It is a pure value and carries
// enough context to act on: where, what kind, and a human-readable
// detail.
type Violation struct {
	RowIndex int    `json:"row_index"` // BatchLevel for batch-wide findings
	Column   string `json:"column_name"`
	Kind     Kind   `json:"finding_kind"`
	Detail   string `json:"detail"`
}

func (v Violation) String() string {
	if v.RowIndex == BatchLevel {
		return fmt.Sprintf("[%s] %s", v.Kind, v.Detail)
	}
	return fmt.Sprintf("[%s] row %d, column %q: %s", v.Kind, v.RowIndex, v.Column, v.Detail)
}
