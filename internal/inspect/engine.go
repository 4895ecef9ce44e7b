package inspect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// Checker is a single independent governance check. Implementations must
// be read-only and idempotent: the engine may run them concurrently and
// callers may re-run inspection on an unchanged batch expecting the same
// result.
type Checker interface {
	Name() string
	Check(ctx context.Context, batch warehouse.Batch, def schema.Definition) ([]Violation, error)
}

// Engine runs every registered checker against a batch and pools the
// findings. A checker failure is isolated: it becomes one batch-level
// CHECKER_ERROR violation and never prevents the remaining checkers from
// running.
type Engine struct {
	checkers []Checker
}

// NewEngine creates an engine over the given checkers.
func NewEngine(checkers ...Checker) *Engine {
	return &Engine{checkers: checkers}
}

// Register adds a checker. Not safe to call once Inspect is in flight.
func (e *Engine) Register(c Checker) {
	e.checkers = append(e.checkers, c)
}

// Inspect runs all checkers and returns the complete violation list.
// The batch is clean iff the returned slice is empty. Checkers run
// concurrently; results are concatenated in registration order so output
// is deterministic, and each checker's own row order is preserved.
func (e *Engine) Inspect(ctx context.Context, batch warehouse.Batch, def schema.Definition) []Violation {
	results := make([][]Violation, len(e.checkers))

	var wg sync.WaitGroup
	for i, checker := range e.checkers {
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()
			results[i] = e.runChecker(ctx, checker, batch, def)
		}(i, checker)
	}
	wg.Wait()

	violations := []Violation{}
	for _, vs := range results {
		violations = append(violations, vs...)
	}

	if len(violations) > 0 {
		slog.Info("inspection found violations",
			"master", def.MasterName,
			"rows", len(batch),
			"violations", len(violations),
		)
	} else {
		slog.Debug("inspection clean", "master", def.MasterName, "rows", len(batch))
	}
	return violations
}

// runChecker executes one checker, folding errors and panics into a
// single batch-level CHECKER_ERROR violation.
func (e *Engine) runChecker(ctx context.Context, checker Checker, batch warehouse.Batch, def schema.Definition) (out []Violation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("checker panicked", "checker", checker.Name(), "panic", r)
			out = []Violation{{
				RowIndex: BatchLevel,
				Column:   BatchColumn,
				Kind:     KindCheckerError,
				Detail:   fmt.Sprintf("checker %q panicked: %v", checker.Name(), r),
			}}
		}
	}()

	violations, err := checker.Check(ctx, batch, def)
	if err != nil {
		slog.Error("checker failed", "checker", checker.Name(), "error", err)
		return []Violation{{
			RowIndex: BatchLevel,
			Column:   BatchColumn,
			Kind:     KindCheckerError,
			Detail:   fmt.Sprintf("checker %q failed: %v", checker.Name(), err),
		}}
	}
	return violations
}
