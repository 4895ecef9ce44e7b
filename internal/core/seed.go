package core

import (
	"fmt"
	"time"

	"mastergate/internal/schema"
	"mastergate/internal/warehouse"
)

// seedRow builds the placeholder row inserted into a freshly created
// table, one type-appropriate value per column. NOT_NULL columns are
// always satisfied because no type maps to nil.
func seedRow(def schema.Definition) warehouse.Row {
	row := make(warehouse.Row, len(def.Columns))
	for _, col := range def.Columns {
		switch col.Type {
		case schema.TypeInteger:
			row[col.Name] = int64(0)
		case schema.TypeFloat:
			row[col.Name] = 0.0
		case schema.TypeBoolean:
			row[col.Name] = false
		case schema.TypeDate:
			row[col.Name] = time.Now().UTC().Format("2006-01-02")
		case schema.TypeTimestamp:
			row[col.Name] = time.Now().UTC().Format(time.RFC3339)
		case schema.TypeJSON:
			row[col.Name] = map[string]any{"dummy_key": fmt.Sprintf("value_for_%s", col.Name)}
		default:
			row[col.Name] = fmt.Sprintf("dummy_%s", col.Name)
		}
	}
	return row
}
