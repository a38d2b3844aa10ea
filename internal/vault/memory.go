package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"arc-go/internal/arc"
)

// MemoryVault keeps snapshots in memory. Useful for tests.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // instanceID -> snapshot
	versions  map[string]int64  // instanceID -> version
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

// PutSnapshot stores the snapshot for an instance, replacing any previous one.
func (m *MemoryVault) PutSnapshot(_ context.Context, instanceID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[instanceID] = data
	m.versions[instanceID] = version
	return nil
}

// GetSnapshot writes the stored snapshot for an instance to w.
func (m *MemoryVault) GetSnapshot(_ context.Context, instanceID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[instanceID]
	if !ok {
		return fmt.Errorf("instance %s: %w", instanceID, ErrSnapshotNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 if nothing has been stored for the instance.
func (m *MemoryVault) GetSnapshotVersion(_ context.Context, instanceID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[instanceID], nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}

// Compile-time check that MemoryVault implements arc.Vault interface
var _ arc.Vault = (*MemoryVault)(nil)
