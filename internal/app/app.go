package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"arc-go/internal/arc"
	"arc-go/internal/config"
	"arc-go/internal/database"
	"arc-go/internal/database/migrations"
	"arc-go/internal/fs"
	"arc-go/internal/vault"
)

// ArcApp is the application layer between the CLI and the Archive.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw paths, and owns the database and log file until Close.
type ArcApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	archive *arc.Archive
	fsmgr   *fs.OSFilesystemManager
	logger  *slog.Logger
	op      *Operation
	logFile *os.File
}

// NewArcApp creates a fully wired ArcApp from the given config.
// operation identifies the CLI command being run (e.g. "Upload", "Serve").
// The schema is migrated on open. The caller must call Close when done.
func NewArcApp(cfg *config.Config, operation string) (*ArcApp, error) {
	return newArcApp(cfg, operation, os.Stderr)
}

func newArcApp(cfg *config.Config, operation string, console io.Writer) (*ArcApp, error) {
	op := NewOperation(operation, time.Now())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogLevel, console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	opts := arc.Options{
		MaxPayloadSize: cfg.Archive.MaxPayloadSize,
		DefaultAuthor:  cfg.Archive.DefaultAuthor,
	}
	if cfg.Archive.DownloadCacheEntries > 0 {
		opts.Cache = arc.NewDownloadCache(
			cfg.Archive.DownloadCacheEntries,
			cfg.Archive.DownloadCacheMaxBytes,
			cfg.Archive.DownloadCacheTTL.Duration,
		)
	}

	archive := arc.NewArchive(db, &slogAdapter{l: logger}, arc.RealClock{}, opts)
	logger.Debug("operation started", "operation", op.Name, "database", db.Path())

	return &ArcApp{
		cfg:     cfg,
		db:      db,
		archive: archive,
		fsmgr:   fs.NewOSFilesystemManager(),
		logger:  logger,
		op:      op,
		logFile: logFile,
	}, nil
}

// Archive returns the wired archive, for callers that serve it directly.
func (a *ArcApp) Archive() *arc.Archive {
	return a.archive
}

// Database returns the open database, for health checks.
func (a *ArcApp) Database() *database.SQLiteDatabase {
	return a.db
}

// Config returns the config the app was built from.
func (a *ArcApp) Config() *config.Config {
	return a.cfg
}

// Logger returns the operation logger.
func (a *ArcApp) Logger() *slog.Logger {
	return a.logger
}

// UploadFile stores the file at rawPath under its base name.
func (a *ArcApp) UploadFile(ctx context.Context, author, rawPath string) (*arc.FileSummary, error) {
	data, err := a.fsmgr.ReadFile(rawPath)
	if err != nil {
		return nil, err
	}
	return a.archive.CreateFile(ctx, author, filepath.Base(rawPath), data)
}

// ImportResult summarizes an ImportDirectory run.
type ImportResult struct {
	Imported []*arc.FileSummary
	Skipped  []string // relative paths over the payload cap
}

// ImportDirectory uploads every file under dir that is not ignored by the
// configured patterns or a .arcignore file in dir. Files are stored under
// their slash-separated path relative to dir. Oversized files are skipped.
func (a *ArcApp) ImportDirectory(ctx context.Context, dir string, recursive bool, author string) (*ImportResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	ignore, err := fs.LoadIgnoreMatcher(root, a.cfg.Import.Ignore)
	if err != nil {
		return nil, err
	}

	entries, err := a.fsmgr.FindFiles(root, recursive, ignore)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.importEntry(ctx, e, author, res); err != nil {
			return res, err
		}
	}

	a.logger.Info("directory imported", "root", root, "imported", len(res.Imported), "skipped", len(res.Skipped))
	return res, nil
}

// importEntry uploads one walked file and records it in res.
// A file over the payload cap is skipped, including one that grew after the walk.
func (a *ArcApp) importEntry(ctx context.Context, e fs.FileEntry, author string, res *ImportResult) error {
	name := filepath.ToSlash(e.RelPath)
	if e.Size > a.archive.MaxPayloadSize() {
		a.logger.Warn("skipping oversized file", "path", name, "size", e.Size)
		res.Skipped = append(res.Skipped, name)
		return nil
	}

	data, err := a.fsmgr.ReadFile(e.Path)
	if err != nil {
		return err
	}

	summary, err := a.archive.CreateFile(ctx, author, name, data)
	if errors.Is(err, arc.ErrSizeExceeded) {
		a.logger.Warn("skipping oversized file", "path", name, "size", len(data))
		res.Skipped = append(res.Skipped, name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("importing %s: %w", name, err)
	}
	res.Imported = append(res.Imported, summary)
	return nil
}

// ListFiles returns the Current files matching q.
func (a *ArcApp) ListFiles(ctx context.Context, q arc.ListQuery) ([]*arc.FileSummary, error) {
	return a.archive.ListFiles(ctx, q)
}

// DeleteFile moves a Current file to the trash.
func (a *ArcApp) DeleteFile(ctx context.Context, id int64) error {
	return a.archive.DeleteFile(ctx, id)
}

// ReplaceFile supersedes oldID with the file at rawPath.
func (a *ArcApp) ReplaceFile(ctx context.Context, oldID int64, rawPath string) (*arc.ReplaceResult, error) {
	data, err := a.fsmgr.ReadFile(rawPath)
	if err != nil {
		return nil, err
	}
	return a.archive.ReplaceFile(ctx, oldID, filepath.Base(rawPath), data)
}

// DownloadFile writes the payload of id to outPath. When outPath is empty or
// an existing directory, the stored file name is used inside it.
// Existing files are only replaced when overwrite is set.
// Returns the path written.
func (a *ArcApp) DownloadFile(ctx context.Context, id int64, outPath string, overwrite bool) (string, error) {
	d, err := a.archive.DownloadFile(ctx, id)
	if err != nil {
		return "", err
	}

	dest := outPath
	if dest == "" {
		dest = "."
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, localName(d.Filename, id))
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(dest, flags, 0644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := f.Write(d.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dest, err)
	}

	a.logger.Info("file downloaded", "id", id, "path", dest)
	return dest, nil
}

// localName turns a stored file name into a safe name for the local disk.
func localName(stored string, id int64) string {
	name := path.Base(filepath.ToSlash(stored))
	switch name {
	case ".", "..", "/", "":
		return fmt.Sprintf("file-%d", id)
	}
	return name
}

// GetMetadata returns the full record for id.
func (a *ArcApp) GetMetadata(ctx context.Context, id int64) (*arc.FileRecord, error) {
	return a.archive.GetMetadata(ctx, id)
}

// CheckFiles flags Current files whose payload no longer matches their size.
func (a *ArcApp) CheckFiles(ctx context.Context) ([]int64, error) {
	return a.archive.ReanimateCheck(ctx)
}

// ListTrash returns the trash snapshots.
func (a *ArcApp) ListTrash(ctx context.Context) ([]*arc.TrashRecord, error) {
	return a.archive.ListTrash(ctx)
}

// EmptyTrash drops all trash snapshots and purges Deleted files.
func (a *ArcApp) EmptyTrash(ctx context.Context) (int64, error) {
	return a.archive.EmptyTrash(ctx)
}

// ListHistory returns the change log for filter, newest first.
func (a *ArcApp) ListHistory(ctx context.Context, filter string) ([]*arc.HistoryEntry, error) {
	return a.archive.ListHistory(ctx, arc.HistoryFilter(filter))
}

// ClearHistory removes every history entry.
func (a *ArcApp) ClearHistory(ctx context.Context) (int64, error) {
	return a.archive.ClearHistory(ctx)
}

// DBStatus describes the local database.
type DBStatus struct {
	Path string
	migrations.Status
}

// DBStatus reports the database location and schema version.
func (a *ArcApp) DBStatus() (*DBStatus, error) {
	st, err := a.db.MigrationStatus()
	if err != nil {
		return nil, err
	}
	return &DBStatus{Path: a.db.Path(), Status: st}, nil
}

func (a *ArcApp) openVault(ctx context.Context) (arc.Vault, error) {
	if len(a.cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(ctx, a.cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("vault %s not usable: %w", a.cfg.Vaults[0].Name, err)
	}
	return v, nil
}

// SnapshotPush copies the database to the first configured vault.
// The stored version is one more than the version already in the vault.
func (a *ArcApp) SnapshotPush(ctx context.Context) (int64, error) {
	v, err := a.openVault(ctx)
	if err != nil {
		return 0, err
	}

	remote, err := v.GetSnapshotVersion(ctx, a.cfg.InstanceID)
	if err != nil {
		return 0, fmt.Errorf("checking remote snapshot version: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "arc-snapshot-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for snapshot: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, database.DatabaseFilename)
	if err := a.db.BackupTo(tmpPath); err != nil {
		return 0, err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat snapshot: %w", err)
	}

	version := remote + 1
	if err := v.PutSnapshot(ctx, a.cfg.InstanceID, f, info.Size(), version); err != nil {
		return 0, fmt.Errorf("uploading snapshot to vault: %w", err)
	}

	a.logger.Info("snapshot pushed", "vault", a.cfg.Vaults[0].Name, "version", version, "size", info.Size())
	return version, nil
}

// SnapshotPull writes the vault's snapshot of this instance to dest.
// dest must not be the live database file.
func (a *ArcApp) SnapshotPull(ctx context.Context, dest string) (int64, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	if live, err := filepath.Abs(a.db.Path()); err == nil && live == absDest {
		return 0, fmt.Errorf("refusing to overwrite the open database %s", absDest)
	}

	v, err := a.openVault(ctx)
	if err != nil {
		return 0, err
	}

	version, err := v.GetSnapshotVersion(ctx, a.cfg.InstanceID)
	if err != nil {
		return 0, fmt.Errorf("checking remote snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no snapshot stored for instance %s", a.cfg.InstanceID)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absDest), ".arc-pull-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := v.GetSnapshot(ctx, a.cfg.InstanceID, tmp); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, absDest); err != nil {
		return 0, fmt.Errorf("moving snapshot into place: %w", err)
	}

	a.logger.Info("snapshot pulled", "vault", a.cfg.Vaults[0].Name, "version", version, "path", absDest)
	return version, nil
}

// SnapshotVersion returns the version of this instance's snapshot in the
// vault, or 0 if none has been pushed.
func (a *ArcApp) SnapshotVersion(ctx context.Context) (int64, error) {
	v, err := a.openVault(ctx)
	if err != nil {
		return 0, err
	}
	return v.GetSnapshotVersion(ctx, a.cfg.InstanceID)
}

// Finish records the outcome of the operation. A non-nil err marks it failed.
func (a *ArcApp) Finish(err error) {
	if err != nil {
		a.op.Fail()
		a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
	}
}

// Close logs the operation result and closes the database and log file.
func (a *ArcApp) Close() error {
	a.logger.Debug("operation finished",
		"operation", a.op.Name, "status", a.op.Status, "elapsed", time.Since(a.op.Started).Round(time.Millisecond))

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
