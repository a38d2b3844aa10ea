package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"arc-go/internal/arc"
	"arc-go/internal/config"
	"arc-go/internal/database"
	"arc-go/internal/fs"
)

func newTestApp(t *testing.T) (*ArcApp, *config.Config) {
	t.Helper()

	cfg := config.NewConfig("test-instance", t.TempDir())
	a, err := newArcApp(cfg, "Test", io.Discard)
	if err != nil {
		t.Fatalf("newArcApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewArcApp(t *testing.T) {
	a, cfg := newTestApp(t)

	st, err := a.DBStatus()
	if err != nil {
		t.Fatalf("DBStatus() error = %v", err)
	}
	if st.Pending() != 0 {
		t.Errorf("pending migrations after open: %+v", st.Status)
	}
	wantPath := filepath.Join(cfg.Database.DataDir, database.DatabaseFilename)
	if st.Path != wantPath {
		t.Errorf("Path = %q, want %q", st.Path, wantPath)
	}
	if _, err := os.Stat(filepath.Join(cfg.LogDir, LogFilename)); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if a.Archive().MaxPayloadSize() != cfg.Archive.MaxPayloadSize {
		t.Errorf("MaxPayloadSize = %d, want %d", a.Archive().MaxPayloadSize(), cfg.Archive.MaxPayloadSize)
	}
}

func TestNewArcApp_badConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown database", func(c *config.Config) { c.Database.Type = "postgres" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig("x", t.TempDir())
			tt.mutate(cfg)
			if _, err := newArcApp(cfg, "Test", io.Discard); err == nil {
				t.Error("newArcApp() = nil error")
			}
		})
	}
}

func TestArcApp_UploadAndDownload(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, src, "hello")

	got, err := a.UploadFile(ctx, "alice", src)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if got.Filename != "notes.txt" {
		t.Errorf("Filename = %q, want notes.txt", got.Filename)
	}

	outDir := t.TempDir()
	written, err := a.DownloadFile(ctx, got.ID, outDir, false)
	if err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}
	if written != filepath.Join(outDir, "notes.txt") {
		t.Errorf("written = %q", written)
	}
	data, _ := os.ReadFile(written)
	if string(data) != "hello" {
		t.Errorf("downloaded content = %q", data)
	}

	if _, err := a.DownloadFile(ctx, got.ID, outDir, false); err == nil {
		t.Error("second DownloadFile() without overwrite = nil error")
	}
	if _, err := a.DownloadFile(ctx, got.ID, outDir, true); err != nil {
		t.Errorf("DownloadFile() with overwrite error = %v", err)
	}

	if _, err := a.DownloadFile(ctx, 999, outDir, false); !errors.Is(err, arc.ErrNotFound) {
		t.Errorf("DownloadFile(999) error = %v, want ErrNotFound", err)
	}
}

func TestArcApp_DeleteReplaceAndTrash(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "v1.txt"), "one")
	writeFile(t, filepath.Join(dir, "v2.txt"), "two!")

	first, err := a.UploadFile(ctx, "", filepath.Join(dir, "v1.txt"))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	res, err := a.ReplaceFile(ctx, first.ID, filepath.Join(dir, "v2.txt"))
	if err != nil {
		t.Fatalf("ReplaceFile() error = %v", err)
	}
	if res.OldFilename != "v1.txt" || res.Filename != "v2.txt" {
		t.Errorf("ReplaceFile() = %+v", res)
	}

	meta, err := a.GetMetadata(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.Author != "guest" {
		t.Errorf("Author = %q, want guest", meta.Author)
	}

	if err := a.DeleteFile(ctx, res.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}

	trash, err := a.ListTrash(ctx)
	if err != nil {
		t.Fatalf("ListTrash() error = %v", err)
	}
	if len(trash) != 2 {
		t.Errorf("len(trash) = %d, want 2", len(trash))
	}

	n, err := a.EmptyTrash(ctx)
	if err != nil {
		t.Fatalf("EmptyTrash() error = %v", err)
	}
	if n != 2 {
		t.Errorf("EmptyTrash() = %d, want 2", n)
	}

	history, err := a.ListHistory(ctx, "allTime")
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Errorf("len(history) = %d, want 3", len(history))
	}
	if removed, err := a.ClearHistory(ctx); err != nil || removed != 3 {
		t.Errorf("ClearHistory() = %d, %v; want 3, nil", removed, err)
	}
}

func TestArcApp_ImportDirectory(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "scratch.tmp"), "tmp")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "b")
	writeFile(t, filepath.Join(root, "sub", "skip.log"), "log")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(root, ".arcignore"), "*.log\n")

	t.Run("non recursive", func(t *testing.T) {
		res, err := a.ImportDirectory(ctx, root, false, "bob")
		if err != nil {
			t.Fatalf("ImportDirectory() error = %v", err)
		}
		if len(res.Imported) != 1 || res.Imported[0].Filename != "a.txt" {
			t.Errorf("Imported = %+v, want only a.txt", res.Imported)
		}
	})

	t.Run("recursive", func(t *testing.T) {
		res, err := a.ImportDirectory(ctx, root, true, "bob")
		if err != nil {
			t.Fatalf("ImportDirectory() error = %v", err)
		}
		var names []string
		for _, s := range res.Imported {
			names = append(names, s.Filename)
		}
		sort.Strings(names)
		if strings.Join(names, ",") != "a.txt,sub/b.md" {
			t.Errorf("Imported = %v, want [a.txt sub/b.md]", names)
		}
	})

	files, err := a.ListFiles(ctx, arc.ListQuery{Author: "bob", Match: arc.MatchExact})
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Errorf("len(files) = %d, want 3", len(files))
	}
}

func TestArcApp_ImportDirectory_skipsOversized(t *testing.T) {
	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.Archive.MaxPayloadSize = 4
	a, err := newArcApp(cfg, "Test", io.Discard)
	if err != nil {
		t.Fatalf("newArcApp() error = %v", err)
	}
	defer a.Close()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.txt"), "ok")
	writeFile(t, filepath.Join(root, "big.txt"), "far too large")

	res, err := a.ImportDirectory(context.Background(), root, false, "")
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}
	if len(res.Imported) != 1 || res.Imported[0].Filename != "small.txt" {
		t.Errorf("Imported = %+v", res.Imported)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "big.txt" {
		t.Errorf("Skipped = %v, want [big.txt]", res.Skipped)
	}
}

func TestArcApp_importEntry_fileGrewAfterWalk(t *testing.T) {
	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.Archive.MaxPayloadSize = 4
	a, err := newArcApp(cfg, "Test", io.Discard)
	if err != nil {
		t.Fatalf("newArcApp() error = %v", err)
	}
	defer a.Close()

	root := t.TempDir()
	grown := filepath.Join(root, "grown.txt")
	writeFile(t, grown, "far too large")

	// The walk saw the file while it was still small.
	res := &ImportResult{}
	e := fs.FileEntry{Path: grown, RelPath: "grown.txt", Size: 2}
	if err := a.importEntry(context.Background(), e, "", res); err != nil {
		t.Fatalf("importEntry() error = %v", err)
	}
	if len(res.Imported) != 0 {
		t.Errorf("Imported = %+v, want none", res.Imported)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "grown.txt" {
		t.Errorf("Skipped = %v, want [grown.txt]", res.Skipped)
	}

	// The next file is still imported.
	small := filepath.Join(root, "small.txt")
	writeFile(t, small, "ok")
	if err := a.importEntry(context.Background(), fs.FileEntry{Path: small, RelPath: "small.txt", Size: 2}, "", res); err != nil {
		t.Fatalf("importEntry() error = %v", err)
	}
	if len(res.Imported) != 1 || res.Imported[0].Filename != "small.txt" {
		t.Errorf("Imported = %+v, want [small.txt]", res.Imported)
	}
}

func TestArcApp_CheckFiles(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "a.bin")
	writeFile(t, src, strings.Repeat("x", 2048))
	s, err := a.UploadFile(ctx, "alice", src)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.db.ExecRaw("UPDATE files SET data = ? WHERE id = ?", []byte("short"), s.ID); err != nil {
		t.Fatal(err)
	}

	ids, err := a.CheckFiles(ctx)
	if err != nil {
		t.Fatalf("CheckFiles() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != s.ID {
		t.Errorf("CheckFiles() = %v, want [%d]", ids, s.ID)
	}
}

func TestArcApp_Snapshots(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if v, err := a.SnapshotVersion(ctx); err != nil || v != 0 {
		t.Fatalf("SnapshotVersion() before push = %d, %v; want 0, nil", v, err)
	}
	if _, err := a.SnapshotPull(ctx, filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("SnapshotPull() with nothing pushed = nil error")
	}

	src := filepath.Join(t.TempDir(), "kept.txt")
	writeFile(t, src, "kept")
	if _, err := a.UploadFile(ctx, "alice", src); err != nil {
		t.Fatal(err)
	}

	for want := int64(1); want <= 2; want++ {
		got, err := a.SnapshotPush(ctx)
		if err != nil {
			t.Fatalf("SnapshotPush() error = %v", err)
		}
		if got != want {
			t.Errorf("SnapshotPush() version = %d, want %d", got, want)
		}
	}

	dest := filepath.Join(t.TempDir(), "restored.db")
	version, err := a.SnapshotPull(ctx, dest)
	if err != nil {
		t.Fatalf("SnapshotPull() error = %v", err)
	}
	if version != 2 {
		t.Errorf("SnapshotPull() version = %d, want 2", version)
	}

	restored, err := database.NewSQLiteDatabase(dest)
	if err != nil {
		t.Fatalf("opening pulled snapshot: %v", err)
	}
	defer restored.Close()
	rec, err := restored.FindFile(ctx, 1)
	if err != nil || rec == nil || string(rec.Data) != "kept" {
		t.Errorf("restored FindFile(1) = %+v, %v", rec, err)
	}
}

func TestArcApp_SnapshotPull_refusesLiveDatabase(t *testing.T) {
	a, cfg := newTestApp(t)
	live := filepath.Join(cfg.Database.DataDir, database.DatabaseFilename)

	if _, err := a.SnapshotPull(context.Background(), live); err == nil {
		t.Error("SnapshotPull() onto the live database = nil error")
	}
}

func TestArcApp_Finish(t *testing.T) {
	a, _ := newTestApp(t)

	a.Finish(nil)
	if a.op.Failed() {
		t.Error("Finish(nil) marked operation failed")
	}
	a.Finish(errors.New("boom"))
	if !a.op.Failed() {
		t.Error("Finish(err) did not mark operation failed")
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{"a.txt", "a.txt"},
		{"sub/b.md", "b.md"},
		{"..", "file-3"},
		{"/", "file-3"},
	}
	for _, tt := range tests {
		if got := localName(tt.stored, 3); got != tt.want {
			t.Errorf("localName(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}
