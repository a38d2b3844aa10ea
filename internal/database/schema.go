package database

import _ "embed"

// Schema is the flattened DDL produced from the migration files.
// Tests apply it directly instead of running migrations.
//
//go:embed sqlc/schema.sql
var Schema string
