package domain

import "context"

// Producer creates one backup artifact for its data source. Produce must
// write exactly one gzip-compressed file at destPath; the orchestrator
// validates and renames it afterwards.
type Producer interface {
	Produce(ctx context.Context, destPath string) error
	Prefix() string
	Ext() string
}

// Pinger is implemented by producers that can check their source is
// reachable before dumping. A failed ping aborts the run early instead of
// leaving a broken artifact behind.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Restorer is implemented by the database-backed sources. Restore feeds an
// artifact file into the source's native restore tool, overwriting live
// data. Target names what gets overwritten, for the confirmation prompt.
type Restorer interface {
	Restore(ctx context.Context, artifactPath string) error
	Target() string
}
