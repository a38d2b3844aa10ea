package database

// Code generation for the database package:
//
//	go generate ./internal/database
//
// The first step flattens the migrations into sqlc/schema.sql, the second
// regenerates the query layer from sqlc/query.sql.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
