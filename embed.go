package portfolio

import "embed"

// schemaFS holds the CREATE TABLE scripts, one per SQL dialect:
// schema/sqlite.sql and schema/postgres.sql
//
//go:embed schema/*.sql
var schemaFS embed.FS
