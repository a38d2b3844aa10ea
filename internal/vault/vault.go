// Package vault holds the off-host stores that arc snapshot push/pull
// copy the archive database to.
package vault

import "errors"

// ErrSnapshotNotFound is returned by GetSnapshot when no snapshot exists
// for the instance.
var ErrSnapshotNotFound = errors.New("snapshot not found")
