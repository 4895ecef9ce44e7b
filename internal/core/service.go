package core

import (
	"context"
	"fmt"
	"sync"

	"mastergate/internal/inspect"
	"mastergate/internal/logging"
	"mastergate/internal/registry"
	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// Service is the entry point for all master-data operations.
type Service struct {
	registry  *registry.Registry
	warehouse warehouse.Warehouse
	engine    *inspect.Engine
	audit     *AuditLog // nil disables audit recording

	mu          sync.Mutex
	masterLocks map[string]*sync.Mutex
}

// NewService creates a Service. audit may be nil.
func NewService(reg *registry.Registry, wh warehouse.Warehouse, engine *inspect.Engine, audit *AuditLog) *Service {
	return &Service{
		registry:    reg,
		warehouse:   wh,
		engine:      engine,
		audit:       audit,
		masterLocks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the advisory lock serializing writes to one master
// within this process. Cross-process callers are not serialized; the
// registry's persist-before-cache ordering bounds that exposure.
func (s *Service) lockFor(master string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.masterLocks[master]
	if !ok {
		lock = &sync.Mutex{}
		s.masterLocks[master] = lock
	}
	return lock
}

// Masters returns all registered master names.
func (s *Service) Masters() []string {
	return s.registry.Masters()
}

// Schema returns the definition for a master.
func (s *Service) Schema(master string) (schema.Definition, error) {
	def, ok := s.registry.Get(master)
	if !ok {
		return schema.Definition{}, fmt.Errorf("%q: %w", master, ErrSchemaNotFound)
	}
	return def, nil
}

// Load reads the current contents of a master's data table. A table
// that has not been created yet yields an empty batch shaped by the
// schema, not an error.
func (s *Service) Load(ctx context.Context, master string) (warehouse.Batch, error) {
	def, ok := s.registry.Get(master)
	if !ok {
		return nil, fmt.Errorf("load %q: %w", master, ErrSchemaNotFound)
	}
	return s.warehouse.Read(ctx, master, def)
}

// InspectOnly runs the governance checks without writing anything.
// The presentation layer uses this to show every problem before the
// operator commits a save.
func (s *Service) InspectOnly(ctx context.Context, master string, batch warehouse.Batch) ([]inspect.Violation, error) {
	def, ok := s.registry.Get(master)
	if !ok {
		return nil, fmt.Errorf("inspect %q: %w", master, ErrSchemaNotFound)
	}
	return s.engine.Inspect(ctx, batch, def), nil
}

// Save overwrites a master's data table with the batch, but only after
// the batch passes inspection. All-or-nothing: a single violation
// rejects the whole batch and storage is never touched. Exactly one
// storage write happens per successful call, with full-replace
// semantics: callers supply the complete desired table contents.
func (s *Service) Save(ctx context.Context, master string, batch warehouse.Batch) error {
	lock := s.lockFor(master)
	lock.Lock()
	defer lock.Unlock()

	def, ok := s.registry.Get(master)
	if !ok {
		return fmt.Errorf("save %q: %w", master, ErrSchemaNotFound)
	}

	log := logging.WithFields(ctx, "master", master, "rows", len(batch))

	violations := s.engine.Inspect(ctx, batch, def)
	if len(violations) > 0 {
		log.Warn("save rejected by inspection", "violations", len(violations))
		s.recordAudit(ctx, AuditEntry{
			Action:     ActionSaveRejected,
			Master:     master,
			Rows:       len(batch),
			Violations: len(violations),
		})
		return &InspectionError{Master: master, Violations: violations}
	}

	if err := s.warehouse.Overwrite(ctx, master, def, batch); err != nil {
		log.Error("warehouse overwrite failed", "error", err)
		return &SaveError{Master: master, Err: err}
	}

	log.Info("master data saved")
	s.recordAudit(ctx, AuditEntry{
		Action: ActionSave,
		Master: master,
		Rows:   len(batch),
	})
	return nil
}

// UpdateSchema replaces a master's schema definition. Metadata only:
// the data table keeps its current structure, so the operator must
// migrate it separately if the shapes diverge.
func (s *Service) UpdateSchema(ctx context.Context, master string, columns []schema.Column) (schema.Definition, error) {
	def, err := s.registry.Update(ctx, master, columns)
	if err != nil {
		return schema.Definition{}, err
	}

	logging.FromContext(ctx).Warn(
		"schema definition updated; the data table structure was not altered",
		"master", master,
	)
	s.recordAudit(ctx, AuditEntry{Action: ActionSchemaUpdate, Master: master})
	return def, nil
}

// DeleteMaster removes a master's schema definition. The data table is
// deliberately left in place; the definition and the table diverge
// from this point, which is logged rather than silently reconciled.
func (s *Service) DeleteMaster(ctx context.Context, master string) error {
	if err := s.registry.Delete(ctx, master); err != nil {
		return err
	}

	logging.FromContext(ctx).Warn(
		"master definition deleted; any existing data table was left in place",
		"master", master,
	)
	s.recordAudit(ctx, AuditEntry{Action: ActionMasterDelete, Master: master})
	return nil
}
