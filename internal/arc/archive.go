package arc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "arc_operations_total",
		Help: "Archive operations by name and outcome.",
	},
	[]string{"operation", "result"},
)

// Options tunes an Archive. Zero values select the defaults.
type Options struct {
	MaxPayloadSize int64
	DefaultAuthor  string
	Cache          *DownloadCache // nil disables download caching
}

// Archive is the file store: it validates input, derives record fields
// and drives the file lifecycle through the Database.
type Archive struct {
	database      Database
	logger        Logger
	clock         Clock
	maxPayload    int64
	defaultAuthor string
	cache         *DownloadCache
}

// NewArchive creates an Archive over the given database.
func NewArchive(database Database, logger Logger, clock Clock, opts Options) *Archive {
	if opts.MaxPayloadSize <= 0 {
		opts.MaxPayloadSize = DefaultMaxPayloadSize
	}
	if opts.DefaultAuthor == "" {
		opts.DefaultAuthor = DefaultAuthor
	}
	return &Archive{
		database:      database,
		logger:        logger,
		clock:         clock,
		maxPayload:    opts.MaxPayloadSize,
		defaultAuthor: opts.DefaultAuthor,
		cache:         opts.Cache,
	}
}

// MaxPayloadSize returns the largest accepted payload in bytes.
func (a *Archive) MaxPayloadSize() int64 {
	return a.maxPayload
}

// CreateFile stores a new Current record.
// An empty author is replaced by the default author label.
func (a *Archive) CreateFile(ctx context.Context, author, filename string, data []byte) (*FileSummary, error) {
	if err := checkPayload(filename, data, a.maxPayload); err != nil {
		record("create", err)
		return nil, err
	}
	if strings.TrimSpace(author) == "" {
		author = a.defaultAuthor
	}

	rec, err := a.database.CreateFile(ctx, &NewFile{
		Author:    author,
		Filename:  filename,
		Extension: Extension(filename),
		Size:      SizeKB(len(data)),
		Data:      data,
		At:        a.clock.Now(),
	})
	record("create", err)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	a.logger.Info("file uploaded", "id", rec.ID, "filename", rec.Filename, "author", rec.Author, "size_kb", rec.Size)
	return &FileSummary{ID: rec.ID, Filename: rec.Filename, Size: rec.Size}, nil
}

// ListFiles returns the Current files matching q.
func (a *Archive) ListFiles(ctx context.Context, q ListQuery) ([]*FileSummary, error) {
	q.SortKey = ParseSortKey(string(q.SortKey))
	q.Order = ParseSortOrder(string(q.Order))
	q.Match = ParseMatchMode(string(q.Match))

	files, err := a.database.ListFiles(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// DeleteFile moves a Current file to the trash.
func (a *Archive) DeleteFile(ctx context.Context, id int64) error {
	rec, err := a.database.TrashFile(ctx, id, a.clock.Now())
	record("delete", err)
	if err != nil {
		return fmt.Errorf("deleting file %d: %w", id, err)
	}

	a.logger.Info("file deleted", "id", id, "filename", rec.Filename)
	return nil
}

// ReplaceFile supersedes oldID with a new record holding data.
// The new record keeps the old author and upload date.
func (a *Archive) ReplaceFile(ctx context.Context, oldID int64, filename string, data []byte) (*ReplaceResult, error) {
	if err := checkPayload(filename, data, a.maxPayload); err != nil {
		record("replace", err)
		return nil, err
	}

	res, err := a.database.ReplaceFile(ctx, oldID, &NewFile{
		Filename:  filename,
		Extension: Extension(filename),
		Size:      SizeKB(len(data)),
		Data:      data,
		At:        a.clock.Now(),
	})
	record("replace", err)
	if err != nil {
		return nil, fmt.Errorf("replacing file %d: %w", oldID, err)
	}

	a.logger.Info("file replaced", "old_id", oldID, "new_id", res.ID, "old_filename", res.OldFilename, "filename", res.Filename)
	return res, nil
}

// DownloadFile returns the payload of a record in any state.
// Deleted and Purged records remain downloadable.
func (a *Archive) DownloadFile(ctx context.Context, id int64) (*Download, error) {
	if a.cache != nil {
		if d, ok := a.cache.Get(id); ok {
			return d, nil
		}
	}

	rec, err := a.database.FindFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding file %d: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("file %d: %w", id, ErrNotFound)
	}

	d := &Download{Filename: rec.Filename, Data: rec.Data}
	if a.cache != nil {
		a.cache.Add(id, d)
	}
	return d, nil
}

// GetMetadata returns the full record, payload included.
func (a *Archive) GetMetadata(ctx context.Context, id int64) (*FileRecord, error) {
	rec, err := a.database.FindFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding file %d: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

// ReanimateCheck scans Current records and moves those whose payload no
// longer matches their recorded size to the trash. Returns the flagged ids.
func (a *Archive) ReanimateCheck(ctx context.Context) ([]int64, error) {
	ids, err := a.database.FlagCorruptFiles(ctx, a.clock.Now())
	record("check", err)
	if err != nil {
		return nil, fmt.Errorf("checking files: %w", err)
	}

	for _, id := range ids {
		a.logger.Warn("corrupt file moved to trash", "id", id)
	}
	a.logger.Info("file check complete", "flagged", len(ids))
	return ids, nil
}

// EmptyTrash drops every trash snapshot and purges Deleted records.
func (a *Archive) EmptyTrash(ctx context.Context) (int64, error) {
	n, err := a.database.EmptyTrash(ctx, a.clock.Now())
	record("empty_trash", err)
	if err != nil {
		return 0, fmt.Errorf("emptying trash: %w", err)
	}

	a.logger.Info("trash emptied", "purged", n)
	return n, nil
}

// ListTrash returns the current trash snapshots.
func (a *Archive) ListTrash(ctx context.Context) ([]*TrashRecord, error) {
	rows, err := a.database.ListTrash(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trash: %w", err)
	}
	return rows, nil
}

// ListHistory returns the change log for filter, newest first.
func (a *Archive) ListHistory(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error) {
	q := ParseHistoryFilter(string(filter)).Resolve(a.clock.Now())

	entries, err := a.database.ListHistory(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// ClearHistory removes every history entry.
func (a *Archive) ClearHistory(ctx context.Context) (int64, error) {
	n, err := a.database.ClearHistory(ctx)
	record("clear_history", err)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}

	a.logger.Info("history cleared", "removed", n)
	return n, nil
}

// record counts an operation outcome by error class.
func record(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrBadInput):
		result = "bad_input"
	case errors.Is(err, ErrSizeExceeded):
		result = "size_exceeded"
	case errors.Is(err, ErrInvalidTransition):
		result = "invalid_transition"
	default:
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
