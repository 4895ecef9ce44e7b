// Package store persists schema definitions to PostgreSQL.
//
// Definitions are stored as one jsonb document per master in a single
// table, keyed by master name. The table is created on demand so a fresh
// database needs no manual setup.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mastergate/internal/schema"
)

const schemaTable = "schema_definitions"

const createSchemaTable = `
CREATE TABLE IF NOT EXISTS schema_definitions (
	master_name text PRIMARY KEY,
	definition  jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
)`

// SchemaStore implements registry.Store on PostgreSQL.
type SchemaStore struct {
	pool *pgxpool.Pool
}

// New creates a SchemaStore and ensures the backing table exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*SchemaStore, error) {
	if _, err := pool.Exec(ctx, createSchemaTable); err != nil {
		return nil, fmt.Errorf("ensure %s table: %w", schemaTable, err)
	}
	return &SchemaStore{pool: pool}, nil
}

// LoadAll reads every persisted definition. Rows whose jsonb payload no
// longer parses are skipped with an error log rather than failing the
// whole load.
func (s *SchemaStore) LoadAll(ctx context.Context) (map[string]schema.Definition, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT master_name, definition FROM schema_definitions")
	if err != nil {
		return nil, fmt.Errorf("load schema definitions: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]schema.Definition)
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan schema definition: %w", err)
		}

		var def schema.Definition
		if err := json.Unmarshal(raw, &def); err != nil {
			slog.Error("skipping unparseable schema definition", "master", name, "error", err)
			continue
		}
		def.MasterName = name
		defs[name] = def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load schema definitions: %w", err)
	}
	return defs, nil
}

// Upsert inserts or replaces the definition for a master.
func (s *SchemaStore) Upsert(ctx context.Context, name string, def schema.Definition) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode definition %q: %w", name, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO schema_definitions (master_name, definition, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (master_name)
		DO UPDATE SET definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at`,
		name, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert definition %q: %w", name, err)
	}
	return nil
}

// Delete removes the definition for a master. Deleting an absent row is
// not an error; existence is the registry's concern.
func (s *SchemaStore) Delete(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM schema_definitions WHERE master_name = $1", name)
	if err != nil {
		return fmt.Errorf("delete definition %q: %w", name, err)
	}
	return nil
}
