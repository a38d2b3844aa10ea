package migrations

import (
	"database/sql"
	"testing"

	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"files", "file_relations", "trash", "history", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
}

func TestReadStatus(t *testing.T) {
	db := openTestDB(t)

	before, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if before.Version != 0 || before.Latest == 0 {
		t.Errorf("fresh status = %+v, want version 0 and non-zero latest", before)
	}
	if before.Pending() != before.Latest {
		t.Errorf("Pending() = %d, want %d", before.Pending(), before.Latest)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	after, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if after.Version != after.Latest || after.Dirty || after.Pending() != 0 {
		t.Errorf("migrated status = %+v, want version == latest, clean", after)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO trash (file_id, filename, delete_date, data)
		VALUES (42, 'ghost.txt', datetime('now'), x'00')
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_StateCheck(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := `INSERT INTO files (author, filename, upload_date, modify_date, extension, size, state, data)
		VALUES ('alice', 'a.txt', datetime('now'), datetime('now'), '.txt', 0, ?, x'')`

	if _, err := db.Exec(insert, "Current"); err != nil {
		t.Fatalf("insert with valid state failed: %v", err)
	}
	if _, err := db.Exec(insert, "Archived"); err == nil {
		t.Error("Expected check constraint violation for unknown state, but insert succeeded")
	}
}

func TestSchema_RelationUnique(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := db.Exec(`INSERT INTO files (author, filename, upload_date, modify_date, extension, size, state, data)
			VALUES ('bob', 'v.txt', datetime('now'), datetime('now'), '.txt', 0, 'Current', x'')`)
		if err != nil {
			t.Fatalf("inserting file: %v", err)
		}
	}

	if _, err := db.Exec("INSERT INTO file_relations (file_id, related_id) VALUES (1, 2)"); err != nil {
		t.Fatalf("Failed to insert first relation: %v", err)
	}
	if _, err := db.Exec("INSERT INTO file_relations (file_id, related_id) VALUES (1, 2)"); err == nil {
		t.Error("Expected unique constraint violation for duplicate relation, but insert succeeded")
	}
}

// countingSource records how often the embedded source is closed.
type countingSource struct {
	source.Driver
	closed *int
}

func (s countingSource) Close() error {
	*s.closed++
	return s.Driver.Close()
}

func TestSourceClosed(t *testing.T) {
	var opened, closed int
	orig := openSource
	openSource = func() (source.Driver, error) {
		src, err := orig()
		if err != nil {
			return nil, err
		}
		opened++
		return countingSource{Driver: src, closed: &closed}, nil
	}
	t.Cleanup(func() { openSource = orig })

	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if _, err := ReadStatus(db); err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Fatalf("CheckDBMigrationStatus() error = %v", err)
	}

	if opened != 3 || closed != opened {
		t.Errorf("sources opened %d, closed %d; want 3 and 3", opened, closed)
	}
}

// openTestDB opens an in-memory SQLite database with foreign keys enabled.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	return db
}
