package arc

import (
	"context"
	"io"
)

// Vault stores copies of the archive database away from the host.
type Vault interface {
	// PutSnapshot stores the database snapshot for an instance.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot so callers can compare copies.
	PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves the snapshot for an instance and writes it to w.
	GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error

	// GetSnapshotVersion returns the stored snapshot version for an instance.
	// Returns 0 if no snapshot has been stored.
	GetSnapshotVersion(ctx context.Context, instanceID string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
