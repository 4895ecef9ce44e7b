// Package warehouse defines the tabular storage contract the governance
// core writes master data through, plus the batch shapes exchanged with
// it. The core never issues DDL or DML itself; it calls this narrow
// interface and lets the implementation own the actual tables.
package warehouse

import (
	"context"
	"errors"

	"mastergate/internal/schema"
)

// Row maps column names to dynamically typed scalar values. A nil value
// means NULL. Rows are not required to be homogeneous until they are
// validated against a schema.
type Row map[string]any

// Batch is an ordered sequence of rows.
type Batch []Row

// ErrTableExists is returned by CreateTable when the target table is
// already present.
var ErrTableExists = errors.New("table already exists")

// Warehouse is the storage collaborator contract.
//
// Read returns an empty batch, not an error, when the table does not
// exist yet. Overwrite replaces the full table contents in a single
// write. InsertRows appends without replacing.
type Warehouse interface {
	Read(ctx context.Context, table string, def schema.Definition) (Batch, error)
	Overwrite(ctx context.Context, table string, def schema.Definition, batch Batch) error
	CreateTable(ctx context.Context, table string, def schema.Definition) error
	InsertRows(ctx context.Context, table string, def schema.Definition, rows []Row) error
}
