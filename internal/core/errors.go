package core

import (
	"errors"
	"fmt"

	"mastergate/internal/inspect"
)

// ErrSchemaNotFound is returned by data operations that reference a
// master with no registered schema.
var ErrSchemaNotFound = errors.New("schema not found")

// InspectionError reports that a batch was rejected by the governance
// gate. It always carries the complete violation list, never a partial
// one.
type InspectionError struct {
	Master     string
	Violations []inspect.Violation
}

func (e *InspectionError) Error() string {
	return fmt.Sprintf("inspection of %q found %d violation(s)", e.Master, len(e.Violations))
}

// SaveError reports a storage-layer failure after a batch passed
// inspection. The underlying cause is preserved.
type SaveError struct {
	Master string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %q: %v", e.Master, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ProvisioningError reports a failed create-master saga. Err is the
// error of the step that failed; CompensationErr, when set, records a
// rollback failure but never masks the original error; Unwrap returns
// Err.
type ProvisioningError struct {
	Master          string
	Step            string
	State           ProvisioningState
	Err             error
	CompensationErr error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("create master %q failed at %s: %v", e.Master, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
