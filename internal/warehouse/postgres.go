package warehouse

// postgres.go implements the Warehouse contract on PostgreSQL.
//
// Tables are created from schema definitions with a straightforward type
// mapping (see sqlType). Overwrite uses TRUNCATE + batched INSERTs inside
// one transaction so readers never observe a half-replaced table.

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mastergate/internal/schema"
)

// Postgres is a Warehouse backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres warehouse over the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// sqlType maps a schema column type to its PostgreSQL column type.
func sqlType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "bigint"
	case schema.TypeFloat:
		return "double precision"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeDate:
		return "date"
	case schema.TypeTimestamp:
		return "timestamptz"
	case schema.TypeJSON:
		return "jsonb"
	default:
		return "text"
	}
}

// tableExists reports whether the table is present in the current schema.
func (p *Postgres) tableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		"SELECT to_regclass($1) IS NOT NULL", pgx.Identifier{table}.Sanitize(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %q: %w", table, err)
	}
	return exists, nil
}

// CreateTable creates the data table for a definition. Returns
// ErrTableExists when the table is already present.
func (p *Postgres) CreateTable(ctx context.Context, table string, def schema.Definition) error {
	exists, err := p.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%q: %w", table, ErrTableExists)
	}

	cols := make([]string, 0, len(def.Columns))
	for _, col := range def.Columns {
		clause := pgx.Identifier{col.Name}.Sanitize() + " " + sqlType(col.Type)
		if col.HasConstraint(schema.NotNull) {
			clause += " NOT NULL"
		}
		if col.HasConstraint(schema.Unique) {
			clause += " UNIQUE"
		}
		cols = append(cols, clause)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "))
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	return nil
}

// Read returns the full contents of a table in schema column order.
// A missing table yields an empty batch, not an error.
func (p *Postgres) Read(ctx context.Context, table string, def schema.Definition) (Batch, error) {
	exists, err := p.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return Batch{}, nil
	}

	names := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
	}

	query := fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(names, ", "), pgx.Identifier{table}.Sanitize())
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	defer rows.Close()

	batch := Batch{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan table %q: %w", table, err)
		}
		row := make(Row, len(def.Columns))
		for i, col := range def.Columns {
			row[col.Name] = decodeValue(col, values[i])
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	return batch, nil
}

// Overwrite replaces the full table contents with the batch in a single
// transaction.
func (p *Postgres) Overwrite(ctx context.Context, table string, def schema.Definition, batch Batch) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin overwrite of %q: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("truncate %q: %w", table, err)
	}
	if err := insertBatch(ctx, tx, table, def, batch); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit overwrite of %q: %w", table, err)
	}
	return nil
}

// InsertRows appends rows to a table without touching existing contents.
func (p *Postgres) InsertRows(ctx context.Context, table string, def schema.Definition, rows []Row) error {
	return insertBatch(ctx, p.pool, table, def, rows)
}

// execer is the subset of pgx calls insertBatch needs, satisfied by both
// *pgxpool.Pool and pgx.Tx.
type execer interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func insertBatch(ctx context.Context, db execer, table string, def schema.Definition, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	names := make([]string, len(def.Columns))
	placeholders := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "))

	b := &pgx.Batch{}
	for i, row := range rows {
		args := make([]any, len(def.Columns))
		for j, col := range def.Columns {
			v, err := encodeValue(col, row[col.Name])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, col.Name, err)
			}
			args[j] = v
		}
		b.Queue(stmt, args...)
	}

	results := db.SendBatch(ctx, b)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert into %q: %w", table, err)
		}
	}
	return nil
}

// encodeValue converts a dynamically typed cell into a driver-friendly
// value for the column's declared type. Strings are parsed where the
// wire type needs a concrete Go type (dates, timestamps, numbers).
func encodeValue(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch col.Type {
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil

	case schema.TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		}

	case schema.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(n), 64)
		}

	case schema.TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(b))
		}

	case schema.TypeDate:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			return time.Parse("2006-01-02", strings.TrimSpace(d))
		}

	case schema.TypeTimestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			return time.Parse(time.RFC3339, strings.TrimSpace(ts))
		}

	case schema.TypeJSON:
		switch j := v.(type) {
		case string:
			return []byte(j), nil
		default:
			return json.Marshal(j)
		}
	}

	return nil, fmt.Errorf("cannot encode %T as %s", v, col.Type)
}

// decodeValue normalizes a scanned value for presentation: temporal types
// come back as strings matching the formats encodeValue accepts.
func decodeValue(col schema.Column, v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		if col.Type == schema.TypeDate {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format(time.RFC3339)
	}
	return v
}
