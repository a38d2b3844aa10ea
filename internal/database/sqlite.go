package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arc-go/internal/arc"
	"arc-go/internal/database/migrations"
	"arc-go/internal/database/sqlc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the arc.Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases
	// from being split across pooled connections.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// dbTime normalizes timestamps so stored values compare correctly as text.
func dbTime(t time.Time) time.Time {
	return t.UTC()
}

// farFuture bounds open-ended history queries.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// File operations

func (s *SQLiteDatabase) CreateFile(ctx context.Context, f *arc.NewFile) (*arc.FileRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	at := dbTime(f.At)

	id, err := qtx.InsertFile(ctx, sqlc.InsertFileParams{
		Author:     f.Author,
		Filename:   f.Filename,
		UploadDate: at,
		ModifyDate: at,
		Extension:  f.Extension,
		Size:       f.Size,
		State:      string(arc.StateCurrent),
		Data:       f.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting file: %w", err)
	}

	if err := appendHistory(ctx, qtx, id, f.Filename, f.Author, at, arc.ChangeUploaded); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &arc.FileRecord{
		ID:           id,
		Author:       f.Author,
		Filename:     f.Filename,
		UploadDate:   at,
		ModifyDate:   at,
		Extension:    f.Extension,
		Size:         f.Size,
		State:        arc.StateCurrent,
		RelatedFiles: []int64{},
		Data:         f.Data,
	}, nil
}

func (s *SQLiteDatabase) FindFile(ctx context.Context, id int64) (*arc.FileRecord, error) {
	rec, err := loadFile(ctx, s.queries, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// loadFile reads a record and its relations. Returns nil if it does not exist.
func loadFile(ctx context.Context, q *sqlc.Queries, id int64) (*arc.FileRecord, error) {
	row, err := q.GetFileByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by id: %w", err)
	}

	related, err := q.GetRelatedFileIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding related files: %w", err)
	}

	return toFileRecord(row, related)
}

func toFileRecord(row sqlc.File, related []int64) (*arc.FileRecord, error) {
	state, err := arc.ParseFileState(row.State)
	if err != nil {
		return nil, fmt.Errorf("file %d: %w", row.ID, err)
	}
	if related == nil {
		related = []int64{}
	}
	return &arc.FileRecord{
		ID:           row.ID,
		Author:       row.Author,
		Filename:     row.Filename,
		UploadDate:   row.UploadDate,
		ModifyDate:   row.ModifyDate,
		Extension:    row.Extension,
		Size:         row.Size,
		State:        state,
		RelatedFiles: related,
		Data:         row.Data,
	}, nil
}

// TrashFile moves a Current record to Deleted, keeping a copy of its payload.
func (s *SQLiteDatabase) TrashFile(ctx context.Context, id int64, at time.Time) (*arc.FileRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	at = dbTime(at)

	rec, err := loadFile(ctx, qtx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("file %d: %w", id, arc.ErrNotFound)
	}

	if err := moveToTrash(ctx, qtx, rec, at); err != nil {
		return nil, err
	}
	if err := appendHistory(ctx, qtx, rec.ID, rec.Filename, rec.Author, at, arc.ChangeDeleted); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return rec, nil
}

// ReplaceFile atomically supersedes a record:
//  1. Loads the old record and decides whether it needs a trash snapshot.
//  2. Moves a Current old record to Deleted with a snapshot.
//  3. Appends a "replaced" history entry for the old record.
//  4. Inserts the new record with the old author and upload date.
//  5. Links both records in each direction.
func (s *SQLiteDatabase) ReplaceFile(ctx context.Context, oldID int64, f *arc.NewFile) (*arc.ReplaceResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	at := dbTime(f.At)

	// 1. Load the superseded record.
	old, err := loadFile(ctx, qtx, oldID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("file %d: %w", oldID, arc.ErrNotFound)
	}

	needsSnapshot, err := old.State.Supersede()
	if err != nil {
		return nil, fmt.Errorf("file %d: %w", oldID, err)
	}

	// 2. Trash it if it was still current.
	if needsSnapshot {
		if err := moveToTrash(ctx, qtx, old, at); err != nil {
			return nil, err
		}
	}

	// 3. History is recorded against the old record.
	if err := appendHistory(ctx, qtx, old.ID, old.Filename, old.Author, at, arc.ChangeReplaced); err != nil {
		return nil, err
	}

	// 4. Insert the successor.
	newID, err := qtx.InsertFile(ctx, sqlc.InsertFileParams{
		Author:     old.Author,
		Filename:   f.Filename,
		UploadDate: old.UploadDate,
		ModifyDate: at,
		Extension:  f.Extension,
		Size:       f.Size,
		State:      string(arc.StateCurrent),
		Data:       f.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting replacement file: %w", err)
	}

	// 5. Link both directions.
	for _, link := range []sqlc.InsertFileRelationParams{
		{FileID: newID, RelatedID: old.ID},
		{FileID: old.ID, RelatedID: newID},
	} {
		if err := qtx.InsertFileRelation(ctx, link); err != nil {
			return nil, fmt.Errorf("linking files %d and %d: %w", link.FileID, link.RelatedID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &arc.ReplaceResult{
		ID:          newID,
		Filename:    f.Filename,
		OldFilename: old.Filename,
	}, nil
}

// FlagCorruptFiles moves Current records with a payload that no longer
// matches their recorded size to Deleted.
func (s *SQLiteDatabase) FlagCorruptFiles(ctx context.Context, at time.Time) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	at = dbTime(at)

	ids, err := qtx.GetCorruptFileIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding corrupt files: %w", err)
	}

	for _, id := range ids {
		rec, err := loadFile(ctx, qtx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		if err := moveToTrash(ctx, qtx, rec, at); err != nil {
			return nil, err
		}
		if err := appendHistory(ctx, qtx, rec.ID, rec.Filename, rec.Author, at, arc.ChangeCorrupt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// moveToTrash snapshots rec into the trash and marks it Deleted.
// rec.State and rec.ModifyDate are updated in place.
func moveToTrash(ctx context.Context, qtx *sqlc.Queries, rec *arc.FileRecord, at time.Time) error {
	next, err := rec.State.Transition(arc.StateDeleted)
	if err != nil {
		return fmt.Errorf("file %d: %w", rec.ID, err)
	}

	_, err = qtx.InsertTrash(ctx, sqlc.InsertTrashParams{
		FileID:     rec.ID,
		Filename:   rec.Filename,
		DeleteDate: at,
		Data:       rec.Data,
	})
	if err != nil {
		return fmt.Errorf("inserting trash snapshot: %w", err)
	}

	err = qtx.UpdateFileState(ctx, sqlc.UpdateFileStateParams{
		State:      string(next),
		ModifyDate: at,
		ID:         rec.ID,
	})
	if err != nil {
		return fmt.Errorf("updating file state: %w", err)
	}

	rec.State = next
	rec.ModifyDate = at
	return nil
}

func appendHistory(ctx context.Context, qtx *sqlc.Queries, fileID int64, filename, author string, at time.Time, text string) error {
	_, err := qtx.InsertHistory(ctx, sqlc.InsertHistoryParams{
		FileID:     fileID,
		Filename:   filename,
		Author:     author,
		ChangeDate: at,
		ChangeText: text,
	})
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// Trash operations

// EmptyTrash deletes every trash snapshot and purges Deleted records.
func (s *SQLiteDatabase) EmptyTrash(ctx context.Context, at time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.DeleteAllTrash(ctx); err != nil {
		return 0, fmt.Errorf("deleting trash: %w", err)
	}

	purged, err := qtx.PurgeDeletedFiles(ctx, dbTime(at))
	if err != nil {
		return 0, fmt.Errorf("purging deleted files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return purged, nil
}

func (s *SQLiteDatabase) ListTrash(ctx context.Context) ([]*arc.TrashRecord, error) {
	rows, err := s.queries.GetTrash(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trash: %w", err)
	}

	result := make([]*arc.TrashRecord, len(rows))
	for i, r := range rows {
		result[i] = &arc.TrashRecord{
			ID:         r.ID,
			FileID:     r.FileID,
			Filename:   r.Filename,
			DeleteDate: r.DeleteDate,
			Data:       r.Data,
		}
	}
	return result, nil
}

// History operations

func (s *SQLiteDatabase) ListHistory(ctx context.Context, q arc.HistoryQuery) ([]*arc.HistoryEntry, error) {
	var (
		rows []sqlc.History
		err  error
	)
	if q.Limit > 0 {
		rows, err = s.queries.GetRecentHistory(ctx, int64(q.Limit))
	} else {
		until := q.Until
		if until.IsZero() {
			until = farFuture
		}
		rows, err = s.queries.GetHistoryBetween(ctx, sqlc.GetHistoryBetweenParams{
			Since: dbTime(q.Since),
			Until: dbTime(until),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	result := make([]*arc.HistoryEntry, len(rows))
	for i, r := range rows {
		result[i] = &arc.HistoryEntry{
			ID:         r.ID,
			FileID:     r.FileID,
			Filename:   r.Filename,
			Author:     r.Author,
			ChangeDate: r.ChangeDate,
			ChangeText: r.ChangeText,
		}
	}
	return result, nil
}

func (s *SQLiteDatabase) ClearHistory(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteAllHistory(ctx)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return n, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to the latest version.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the applied and latest schema versions.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// ExecRaw runs a statement outside the archive API. Used by maintenance
// tooling and tests.
func (s *SQLiteDatabase) ExecRaw(query string, args ...any) error {
	_, err := s.db.Exec(query, args...)
	return err
}

// Ping checks that the database connection is usable.
func (s *SQLiteDatabase) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements arc.Database interface
var _ arc.Database = (*SQLiteDatabase)(nil)
