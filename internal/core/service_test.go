package core

import (
	"context"
	"errors"
	"testing"

	"mastergate/internal/inspect"
	"mastergate/internal/registry"
	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// memStore is an in-memory registry.Store for tests.
type memStore struct {
	defs map[string]schema.Definition
}

func newMemStore() *memStore {
	return &memStore{defs: make(map[string]schema.Definition)}
}

func (s *memStore) LoadAll(context.Context) (map[string]schema.Definition, error) {
	out := make(map[string]schema.Definition, len(s.defs))
	for k, v := range s.defs {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, name string, def schema.Definition) error {
	s.defs[name] = def
	return nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	delete(s.defs, name)
	return nil
}

// spyWarehouse records calls and fails on demand.
type spyWarehouse struct {
	overwriteCalls int
	createCalls    int
	insertCalls    int

	createErr    error
	insertErr    error
	overwriteErr error

	lastBatch warehouse.Batch
	tables    map[string]bool
}

func newSpyWarehouse() *spyWarehouse {
	return &spyWarehouse{tables: make(map[string]bool)}
}

func (w *spyWarehouse) Read(_ context.Context, table string, _ schema.Definition) (warehouse.Batch, error) {
	if !w.tables[table] {
		return warehouse.Batch{}, nil
	}
	return w.lastBatch, nil
}

func (w *spyWarehouse) Overwrite(_ context.Context, table string, _ schema.Definition, batch warehouse.Batch) error {
	w.overwriteCalls++
	if w.overwriteErr != nil {
		return w.overwriteErr
	}
	w.tables[table] = true
	w.lastBatch = batch
	return nil
}

func (w *spyWarehouse) CreateTable(_ context.Context, table string, _ schema.Definition) error {
	w.createCalls++
	if w.createErr != nil {
		return w.createErr
	}
	w.tables[table] = true
	return nil
}

func (w *spyWarehouse) InsertRows(_ context.Context, table string, _ schema.Definition, rows []warehouse.Row) error {
	w.insertCalls++
	if w.insertErr != nil {
		return w.insertErr
	}
	return nil
}

// rejectAll flags every row of a named column.
type rejectAll struct {
	column string
}

func (c rejectAll) Name() string { return "reject_all" }

func (c rejectAll) Check(_ context.Context, batch warehouse.Batch, _ schema.Definition) ([]inspect.Violation, error) {
	var vs []inspect.Violation
	for i := range batch {
		vs = append(vs, inspect.Violation{
			RowIndex: i, Column: c.column, Kind: inspect.KindInvalidValue, Detail: "rejected",
		})
	}
	return vs, nil
}

func newTestService(t *testing.T, wh warehouse.Warehouse, checkers ...inspect.Checker) (*Service, *registry.Registry) {
	t.Helper()
	reg := registry.New(newMemStore())
	reg.Initialize(context.Background())
	svc := NewService(reg, wh, inspect.NewEngine(checkers...), nil)
	return svc, reg
}

func customerColumns() []schema.Column {
	return []schema.Column{
		{Name: "id", Type: schema.TypeString, Constraints: []schema.Constraint{schema.NotNull, schema.Unique}, SecurityLevel: schema.LevelPublic},
		{Name: "email", Type: schema.TypeString, SecurityLevel: schema.LevelCaution},
	}
}

func TestSaveCleanBatchWritesOnce(t *testing.T) {
	wh := newSpyWarehouse()
	svc, reg := newTestService(t, wh)
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	batch := warehouse.Batch{{"id": "C001", "email": "a@x.com"}}
	if err := svc.Save(context.Background(), "customers", batch); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if wh.overwriteCalls != 1 {
		t.Errorf("Overwrite called %d times, want exactly 1", wh.overwriteCalls)
	}
}

func TestSaveWithViolationsNeverTouchesStorage(t *testing.T) {
	wh := newSpyWarehouse()
	svc, reg := newTestService(t, wh, rejectAll{column: "id"})
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	batch := warehouse.Batch{{"id": "C001"}, {"id": "C002"}}
	err := svc.Save(context.Background(), "customers", batch)

	var inspErr *InspectionError
	if !errors.As(err, &inspErr) {
		t.Fatalf("Save error = %v, want InspectionError", err)
	}
	if len(inspErr.Violations) != 2 {
		t.Errorf("violation list has %d entries, want the full 2", len(inspErr.Violations))
	}
	if wh.overwriteCalls != 0 {
		t.Error("storage was touched despite violations")
	}
}

func TestSaveUnknownMaster(t *testing.T) {
	svc, _ := newTestService(t, newSpyWarehouse())
	err := svc.Save(context.Background(), "ghost", warehouse.Batch{})
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("Save = %v, want ErrSchemaNotFound", err)
	}
}

func TestSaveStorageFailure(t *testing.T) {
	wh := newSpyWarehouse()
	wh.overwriteErr = errors.New("disk full")
	svc, reg := newTestService(t, wh)
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := svc.Save(context.Background(), "customers", warehouse.Batch{{"id": "C001"}})

	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("Save error = %v, want SaveError", err)
	}
	if saveErr.Unwrap() == nil || saveErr.Unwrap().Error() != "disk full" {
		t.Errorf("SaveError does not carry the underlying cause: %v", saveErr.Unwrap())
	}
}

func TestInspectOnlyDoesNotWrite(t *testing.T) {
	wh := newSpyWarehouse()
	svc, reg := newTestService(t, wh, rejectAll{column: "id"})
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	violations, err := svc.InspectOnly(context.Background(), "customers", warehouse.Batch{{"id": "x"}})
	if err != nil {
		t.Fatalf("InspectOnly: %v", err)
	}
	if len(violations) != 1 {
		t.Errorf("InspectOnly returned %d violations, want 1", len(violations))
	}
	if wh.overwriteCalls != 0 || wh.insertCalls != 0 {
		t.Error("InspectOnly wrote to storage")
	}
}

func TestLoadMissingTableReturnsEmptyBatch(t *testing.T) {
	svc, reg := newTestService(t, newSpyWarehouse())
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	batch, err := svc.Load(context.Background(), "customers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if batch == nil || len(batch) != 0 {
		t.Errorf("Load = %v, want empty batch", batch)
	}

	if _, err := svc.Load(context.Background(), "ghost"); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("Load of unknown master = %v, want ErrSchemaNotFound", err)
	}
}

func TestDeleteMasterLeavesTableInPlace(t *testing.T) {
	wh := newSpyWarehouse()
	svc, reg := newTestService(t, wh)
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	wh.tables["customers"] = true

	if err := svc.DeleteMaster(context.Background(), "customers"); err != nil {
		t.Fatalf("DeleteMaster: %v", err)
	}
	if _, ok := reg.Get("customers"); ok {
		t.Error("definition still registered after delete")
	}
	if !wh.tables["customers"] {
		t.Error("data table was dropped; delete must be metadata-only")
	}
}

func TestUpdateSchemaMetadataOnly(t *testing.T) {
	wh := newSpyWarehouse()
	svc, reg := newTestService(t, wh)
	if _, err := reg.Register(context.Background(), "customers", customerColumns()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	newCols := append(customerColumns(),
		schema.Column{Name: "phone", Type: schema.TypeString, SecurityLevel: schema.LevelCaution})
	def, err := svc.UpdateSchema(context.Background(), "customers", newCols)
	if err != nil {
		t.Fatalf("UpdateSchema: %v", err)
	}
	if len(def.Columns) != 3 {
		t.Errorf("updated definition has %d columns, want 3", len(def.Columns))
	}
	if wh.createCalls != 0 {
		t.Error("schema update must not touch the data table")
	}

	if _, err := svc.UpdateSchema(context.Background(), "ghost", newCols); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("UpdateSchema of unknown master = %v, want ErrNotFound", err)
	}
}
