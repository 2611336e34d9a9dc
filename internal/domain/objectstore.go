package domain

import (
	"context"
	"time"
)

// Object is one remote backup artifact as reported by the store.
type Object struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the remote leg of a backup run. Configure must be
// idempotent and purely local (writing an alias, validating fields);
// reaching the endpoint is deferred to Upload so that an unreachable
// server degrades to a non-fatal upload failure instead of aborting the
// run at configuration time.
type ObjectStore interface {
	Configure(ctx context.Context) error
	Upload(ctx context.Context, localPath, remoteName string) error

	// List returns every remote object under the configured target that
	// matches the backup naming convention for this source.
	List(ctx context.Context) ([]Object, error)

	// Remove deletes a single object. Best-effort: the caller logs
	// failures and carries on.
	Remove(ctx context.Context, remoteName string) error

	// RemoveOlderThan deletes every object under the target older than the
	// given number of days in one server-side sweep.
	RemoveOlderThan(ctx context.Context, days int) error

	// Download fetches a remote object into localPath, for restores.
	Download(ctx context.Context, remoteName, localPath string) error

	// Location renders the remote target for operator-facing output.
	Location(remoteName string) string
}

// Mirror receives a best-effort copy of the artifact after the primary
// flow. Mirror failures never affect the run's outcome.
type Mirror interface {
	Name() string
	Upload(ctx context.Context, localPath, remoteName string) error
}

// Notifier reports a finished run through a side channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyFile(ctx context.Context, localPath, caption string) error
}
