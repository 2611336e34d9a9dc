package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hardng/arca/internal/domain"
	"github.com/hardng/arca/internal/infrastructure/lockfile"
	"github.com/hardng/arca/internal/infrastructure/metrics"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// LocalStore is the slice of the backup directory a run needs.
type LocalStore interface {
	Dir() string
	Path(name string) string
	List(prefix string) ([]domain.Artifact, error)
	Remove(name string) error
	SweepPartials(prefix string) (int, error)
}

// Backup drives one run end to end: lock, sweep, ping, produce, validate,
// upload, retention, notify. The remote leg and everything after it is
// best-effort; failures up to and including validation abort the run.
type Backup struct {
	producer     domain.Producer
	local        LocalStore
	store        domain.ObjectStore
	storeName    string
	mirrors      []domain.Mirror
	notifier     domain.Notifier
	retention    *Retention
	logger       Logger
	metrics      metrics.Metrics
	localPolicy  domain.RetentionPolicy
	remotePolicy domain.RetentionPolicy
	cleanupLocal bool
	now          func() time.Time
}

type BackupParams struct {
	Producer  domain.Producer
	Local     LocalStore
	Store     domain.ObjectStore // nil disables the remote leg
	StoreName string
	Mirrors   []domain.Mirror
	Notifier  domain.Notifier // nil disables notifications
	Logger    Logger
	Metrics   metrics.Metrics

	LocalPolicy  domain.RetentionPolicy
	RemotePolicy domain.RetentionPolicy
	CleanupLocal bool
}

func NewBackup(p BackupParams) *Backup {
	m := p.Metrics
	if m == nil {
		m = metrics.Noop{}
	}
	return &Backup{
		producer:     p.Producer,
		local:        p.Local,
		store:        p.Store,
		storeName:    p.StoreName,
		mirrors:      p.Mirrors,
		notifier:     p.Notifier,
		retention:    NewRetention(p.Logger, m),
		logger:       p.Logger,
		metrics:      m,
		localPolicy:  p.LocalPolicy,
		remotePolicy: p.RemotePolicy,
		cleanupLocal: p.CleanupLocal,
		now:          time.Now,
	}
}

func (uc *Backup) Execute(ctx context.Context) error {
	start := uc.now()
	prefix := uc.producer.Prefix()

	uc.logger.Infof("[%s] Starting backup...", prefix)
	uc.metrics.IncRunStarted(prefix)

	status, err := uc.run(ctx, prefix, start)
	if err != nil {
		status = metrics.StatusFailed
		uc.logger.Errorf("[%s] Backup failed: %v", prefix, err)
	}

	uc.metrics.IncRunCompleted(prefix, status)
	uc.metrics.ObserveRunDuration(prefix, uc.now().Sub(start).Seconds())

	return err
}

func (uc *Backup) run(ctx context.Context, prefix string, start time.Time) (string, error) {
	lock, err := lockfile.Acquire(uc.local.Dir())
	if err != nil {
		return "", err
	}
	defer lock.Release()
	uc.logger.Infof("[%s] Acquired backup directory lock (run %s)", prefix, lock.RunID)

	if n, err := uc.local.SweepPartials(prefix); err != nil {
		uc.logger.Warnf("[%s] Could not sweep stale partial files: %v", prefix, err)
	} else if n > 0 {
		uc.logger.Infof("[%s] Swept %d stale partial file(s) from a previous run", prefix, n)
	}

	if pinger, ok := uc.producer.(domain.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			if !errors.Is(err, domain.ErrToolNotFound) {
				return "", fmt.Errorf("source ping: %w", err)
			}
			uc.logger.Warnf("[%s] No client tool for the reachability check, skipping it", prefix)
		}
	}

	// The timestamp in the name is second-granular, so a second run inside
	// the same second would produce the same name. Fail closed before the
	// dump tool ever starts.
	name := domain.ArtifactName(prefix, uc.producer.Ext(), uc.now())
	finalPath := uc.local.Path(name)
	if _, err := os.Stat(finalPath); err == nil {
		return "", &domain.ProducerError{Source: prefix, Err: fmt.Errorf("artifact %s already exists", name)}
	}

	partialPath := finalPath + domain.PartialSuffix
	uc.logger.Infof("[%s] Creating backup: %s", prefix, finalPath)
	if err := uc.producer.Produce(ctx, partialPath); err != nil {
		os.Remove(partialPath)
		return "", &domain.ProducerError{Source: prefix, Err: err}
	}

	info, err := os.Stat(partialPath)
	if err != nil {
		return "", &domain.ProducerError{Source: prefix, Err: fmt.Errorf("stat produced artifact: %w", err)}
	}
	if info.Size() == 0 {
		os.Remove(partialPath)
		return "", &domain.ProducerError{Source: prefix, Err: errors.New("produced an empty artifact")}
	}

	if err := os.Rename(partialPath, finalPath); err != nil {
		os.Remove(partialPath)
		return "", &domain.ProducerError{Source: prefix, Err: fmt.Errorf("promote artifact: %w", err)}
	}

	uc.logger.Infof("[%s] Backup created, size: %.2f MB", prefix, float64(info.Size())/(1024*1024))
	uc.metrics.AddArtifactBytes(prefix, float64(info.Size()))

	status := metrics.StatusOK
	if uc.store != nil {
		if uc.uploadRemote(ctx, prefix, finalPath, name) {
			uc.retention.EnforceRemote(ctx, uc.store, uc.storeName, uc.remotePolicy)
		} else {
			status = metrics.StatusUploadFailed
		}
	}

	// Mirrors read the local file, so they run before it can be cleaned up.
	uc.uploadMirrors(ctx, prefix, finalPath, name)

	localRemoved := false
	if uc.cleanupLocal && status == metrics.StatusOK && uc.store != nil {
		if err := uc.local.Remove(name); err != nil {
			uc.logger.Warnf("[%s] Could not remove local copy after upload: %v", prefix, err)
		} else {
			uc.logger.Infof("[%s] Removed local copy after upload", prefix)
			localRemoved = true
		}
	}

	if removed := uc.retention.EnforceLocal(uc.local, prefix, uc.localPolicy); removed > 0 {
		uc.logger.Infof("[%s] Local retention removed %d old backup(s)", prefix, removed)
	}

	uc.notify(ctx, prefix, name, finalPath, info.Size(), status, localRemoved, start)

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		prefix, uc.now().Sub(start).Round(time.Second), name)

	return status, nil
}

func (uc *Backup) uploadRemote(ctx context.Context, prefix, localPath, name string) bool {
	uc.logger.Infof("[%s] Uploading to %s...", prefix, uc.storeName)
	if err := uc.store.Upload(ctx, localPath, name); err != nil {
		uc.logger.Warnf("[%s] Upload to %s failed, keeping local copy: %v", prefix, uc.storeName, err)
		return false
	}
	uc.logger.Infof("[%s] Successfully uploaded to %s", prefix, uc.store.Location(name))
	return true
}

func (uc *Backup) uploadMirrors(ctx context.Context, prefix, localPath, name string) {
	if len(uc.mirrors) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, mirror := range uc.mirrors {
		wg.Add(1)
		go func(m domain.Mirror) {
			defer wg.Done()

			uc.logger.Infof("[%s] Mirroring to %s...", prefix, m.Name())
			if err := m.Upload(ctx, localPath, name); err != nil {
				uc.logger.Errorf("[%s] Failed to mirror to %s: %v", prefix, m.Name(), err)
			} else {
				uc.logger.Infof("[%s] Successfully mirrored to %s", prefix, m.Name())
			}
		}(mirror)
	}

	wg.Wait()
}

func (uc *Backup) notify(ctx context.Context, prefix, name, localPath string, size int64, status string, localRemoved bool, start time.Time) {
	if uc.notifier == nil {
		return
	}

	dest := "local backup directory"
	if uc.store != nil && status == metrics.StatusOK {
		dest = uc.store.Location(name)
	}

	message := fmt.Sprintf("%s backup %s (%.2f MB, %s) stored at %s",
		prefix, name, float64(size)/(1024*1024), uc.now().Sub(start).Round(time.Second), dest)
	if status == metrics.StatusUploadFailed {
		message += " (remote upload failed, local copy retained)"
	}

	var err error
	if localRemoved {
		err = uc.notifier.Notify(ctx, message)
	} else {
		err = uc.notifier.NotifyFile(ctx, localPath, message)
	}
	if err != nil {
		uc.logger.Warnf("[%s] Notification failed: %v", prefix, err)
	}
}
