// Package core contains the governance orchestrators for master data.
//
// This package is the heart of the service and has no transport
// dependencies; it can be driven by HTTP handlers, CLI tools, or tests
// without modification. Two workflows live here:
//
//   - Save: gates every data overwrite behind the inspection engine.
//     A batch with any violation never reaches the warehouse.
//   - CreateMaster: a linear saga that registers a schema, creates the
//     remote table, and seeds a placeholder row, compensating the schema
//     registration when table creation fails.
//
// The orchestrators own no state beyond a single call; the schema
// registry owns the definition cache and the warehouse owns the data
// tables.
package core
