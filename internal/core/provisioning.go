package core

import (
	"context"

	"github.com/google/uuid"

	"mastergate/internal/logging"
	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// ProvisioningState names the stations of the create-master saga. It is
// tracked only for the duration of one call, never persisted.
type ProvisioningState string

const (
	StateSchemaRegistered ProvisioningState = "SCHEMA_REGISTERED"
	StateTableCreated     ProvisioningState = "TABLE_CREATED"
	StateSeedInserted     ProvisioningState = "SEED_INSERTED"
	StateRolledBack       ProvisioningState = "ROLLED_BACK"
	StateFailed           ProvisioningState = "FAILED"
)

// ProvisioningResult reports how far a create-master call got.
// SeedWarning is set when seeding failed but the master itself was
// provisioned successfully.
type ProvisioningResult struct {
	RunID       string            `json:"run_id"`
	Master      string            `json:"master"`
	State       ProvisioningState `json:"state"`
	SeedWarning string            `json:"seed_warning,omitempty"`
}

// CreateMaster provisions a new master: schema registration, remote
// table creation, and one seed row. The saga is linear with a single
// compensation edge: if table creation fails, the just-registered
// schema is deleted again (best effort; a compensation failure is
// logged and recorded but the original error is what propagates).
//
// Seed-row failure is deliberately non-fatal: the master is usable
// without it, so the call still succeeds and carries a warning.
func (s *Service) CreateMaster(ctx context.Context, master string, columns []schema.Column) (ProvisioningResult, error) {
	runID := uuid.New().String()
	log := logging.WithFields(ctx, "master", master, "run_id", runID)
	result := ProvisioningResult{RunID: runID, Master: master}

	// Step 1: register the schema. Nothing to compensate on failure.
	def, err := s.registry.Register(ctx, master, columns)
	if err != nil {
		result.State = StateFailed
		return result, &ProvisioningError{
			Master: master, Step: "register_schema", State: StateFailed, Err: err,
		}
	}
	result.State = StateSchemaRegistered
	log.Info("schema registered", "columns", len(columns))

	// Step 2: create the data table. On failure, compensate step 1.
	if err := s.warehouse.CreateTable(ctx, master, def); err != nil {
		log.Error("table creation failed, rolling back schema registration", "error", err)

		perr := &ProvisioningError{
			Master: master, Step: "create_table", State: StateFailed, Err: err,
		}
		if rbErr := s.registry.Delete(ctx, master); rbErr != nil {
			log.Error("schema rollback failed", "error", rbErr)
			perr.CompensationErr = rbErr
			result.State = StateFailed
		} else {
			log.Info("schema registration rolled back")
			result.State = StateRolledBack
		}
		perr.State = result.State
		return result, perr
	}
	result.State = StateTableCreated
	log.Info("data table created")

	// Step 3: seed a placeholder row. Non-fatal.
	if len(def.Columns) > 0 {
		seed := seedRow(def)
		if err := s.warehouse.InsertRows(ctx, master, def, []warehouse.Row{seed}); err != nil {
			log.Warn("seed row insertion failed; master remains usable", "error", err)
			result.SeedWarning = err.Error()
		} else {
			result.State = StateSeedInserted
			log.Info("seed row inserted")
		}
	}

	s.recordAudit(ctx, AuditEntry{
		Action: ActionMasterCreate,
		Master: master,
		RunID:  runID,
		Detail: string(result.State),
	})
	return result, nil
}
