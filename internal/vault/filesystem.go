package vault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"arc-go/internal/arc"
)

// FileSystemVault stores snapshots as files:
//
//	<root>/
//	  snapshots/
//	    <instanceID>.db       (database snapshot)
//	    <instanceID>.version  (decimal version marker)
type FileSystemVault struct {
	name         string
	root         string
	snapshotsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemVault{
		name:         name,
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

func (v *FileSystemVault) snapshotPath(instanceID string) string {
	return filepath.Join(v.snapshotsDir, instanceID+".db")
}

func (v *FileSystemVault) versionPath(instanceID string) string {
	return filepath.Join(v.snapshotsDir, instanceID+".version")
}

// PutSnapshot writes the snapshot, then its version marker. A reader that
// sees the new version is guaranteed to see the new snapshot.
func (v *FileSystemVault) PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeAtomic(v.snapshotPath(instanceID), r, size); err != nil {
		return err
	}

	marker := strconv.FormatInt(version, 10)
	return writeAtomic(v.versionPath(instanceID), strings.NewReader(marker), int64(len(marker)))
}

// GetSnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetSnapshotVersion(_ context.Context, instanceID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(instanceID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetSnapshot copies the stored snapshot for an instance to w.
func (v *FileSystemVault) GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(v.snapshotPath(instanceID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("instance %s: %w", instanceID, ErrSnapshotNotFound)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup(context.Context) error {
	for _, dir := range []string{v.root, v.snapshotsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeAtomic writes r to destPath via a temp file in the same directory
// and a rename, so readers never observe a partial file.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements arc.Vault interface
var _ arc.Vault = (*FileSystemVault)(nil)
