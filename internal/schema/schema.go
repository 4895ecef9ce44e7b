// Package schema defines the master-data schema model: named table
// definitions made of typed, classified columns.
//
// A Definition is a pure value. It carries everything downstream layers
// need: column order for the warehouse, constraints for conformance
// checking, and the security level that decides which inspection
// checkers apply to a column.
package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the declared logical type of a column.
type ColumnType string

const (
	TypeString    ColumnType = "STRING"
	TypeInteger   ColumnType = "INTEGER"
	TypeFloat     ColumnType = "FLOAT"
	TypeBoolean   ColumnType = "BOOLEAN"
	TypeDate      ColumnType = "DATE"
	TypeTimestamp ColumnType = "TIMESTAMP"
	TypeJSON      ColumnType = "JSON"
)

// ColumnTypes lists every valid column type, in display order.
var ColumnTypes = []ColumnType{
	TypeString, TypeInteger, TypeFloat, TypeBoolean,
	TypeDate, TypeTimestamp, TypeJSON,
}

// Valid reports whether t is one of the declared column types.
func (t ColumnType) Valid() bool {
	for _, ct := range ColumnTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// Constraint is a column-level constraint.
type Constraint string

const (
	NotNull Constraint = "NOT_NULL"
	Unique  Constraint = "UNIQUE"
)

// Valid reports whether c is a known constraint.
func (c Constraint) Valid() bool {
	return c == NotNull || c == Unique
}

// SecurityLevel classifies how sensitive a column's contents are.
// Levels are ordered, most sensitive first.
type SecurityLevel string

const (
	LevelConfidential SecurityLevel = "A" // confidential
	LevelCaution      SecurityLevel = "B" // handle with caution
	LevelPublic       SecurityLevel = "C" // public
)

// Valid reports whether l is a known security level.
func (l SecurityLevel) Valid() bool {
	return l == LevelConfidential || l == LevelCaution || l == LevelPublic
}

// Sensitive reports whether data in a column at this level must be
// screened for sensitive-information exposure before it is persisted.
func (l SecurityLevel) Sensitive() bool {
	return l == LevelConfidential || l == LevelCaution
}

// Column defines a single column of a master table.
type Column struct {
	Name          string        `json:"name"`
	Type          ColumnType    `json:"type"`
	Constraints   []Constraint  `json:"constraints,omitempty"`
	SecurityLevel SecurityLevel `json:"security_level"`
}

// HasConstraint reports whether the column declares the given constraint.
func (c Column) HasConstraint(con Constraint) bool {
	for _, cc := range c.Constraints {
		if cc == con {
			return true
		}
	}
	return false
}

// Required is shorthand for HasConstraint(NotNull).
func (c Column) Required() bool {
	return c.HasConstraint(NotNull)
}

// Definition is the schema of one master: a unique name plus an ordered
// column list. Column names are case-sensitive and unique within a
// definition.
type Definition struct {
	MasterName string   `json:"master_name"`
	Columns    []Column `json:"columns"`
}

// Column returns the named column, if present.
func (d Definition) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (d Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks the structural invariants of a definition: non-empty
// master name, non-empty unique column names, and every column carrying
// exactly one known type and one known security level.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.MasterName) == "" {
		return fmt.Errorf("master name must not be empty")
	}

	seen := make(map[string]bool, len(d.Columns))
	for i, col := range d.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d: name must not be empty", i)
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = true

		if !col.Type.Valid() {
			return fmt.Errorf("column %q: unknown type %q", col.Name, col.Type)
		}
		if !col.SecurityLevel.Valid() {
			return fmt.Errorf("column %q: unknown security level %q", col.Name, col.SecurityLevel)
		}
		for _, con := range col.Constraints {
			if !con.Valid() {
				return fmt.Errorf("column %q: unknown constraint %q", col.Name, con)
			}
		}
	}

	return nil
}
