package arc

import (
	"context"
	"time"
)

// Database provides the persistence operations behind the Archive.
// Every mutating method runs in a single transaction.
type Database interface {
	// CreateFile inserts a Current record and its "uploaded" history entry.
	CreateFile(ctx context.Context, f *NewFile) (*FileRecord, error)

	// FindFile returns the record with the given id in any state,
	// or nil if it does not exist.
	FindFile(ctx context.Context, id int64) (*FileRecord, error)

	// ListFiles returns Current records matching q.
	ListFiles(ctx context.Context, q ListQuery) ([]*FileSummary, error)

	// TrashFile snapshots the payload into the trash, moves the record to
	// Deleted and appends a "deleted" history entry.
	// Returns ErrNotFound or ErrInvalidTransition.
	TrashFile(ctx context.Context, id int64, at time.Time) (*FileRecord, error)

	// ReplaceFile supersedes oldID with a new Current record linked to it.
	// Returns ErrNotFound or ErrInvalidTransition.
	ReplaceFile(ctx context.Context, oldID int64, f *NewFile) (*ReplaceResult, error)

	// FlagCorruptFiles moves Current records whose payload length does not
	// match their recorded size to Deleted. Returns the flagged ids.
	FlagCorruptFiles(ctx context.Context, at time.Time) ([]int64, error)

	// EmptyTrash removes all trash rows and moves every Deleted record to Purged.
	// Returns the number of purged records.
	EmptyTrash(ctx context.Context, at time.Time) (int64, error)

	// ListTrash returns all trash rows, oldest first.
	ListTrash(ctx context.Context) ([]*TrashRecord, error)

	// ListHistory returns history entries newest first.
	ListHistory(ctx context.Context, q HistoryQuery) ([]*HistoryEntry, error)

	// ClearHistory deletes every history entry and returns how many were removed.
	ClearHistory(ctx context.Context) (int64, error)

	// Close closes the database connection.
	Close() error
}
