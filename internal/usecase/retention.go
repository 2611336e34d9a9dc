package usecase

import (
	"context"
	"time"

	"github.com/hardng/arca/internal/domain"
	"github.com/hardng/arca/internal/infrastructure/metrics"
)

// Plan computes which artifacts a policy removes. Age and count are
// independent filters: survivors of the age sweep can still fall to the
// count sweep. A disabled policy, or an empty set, removes nothing.
func Plan(artifacts []domain.Artifact, policy domain.RetentionPolicy, now time.Time) []domain.Artifact {
	if len(artifacts) == 0 || !policy.Enabled() {
		return nil
	}

	var doomed []domain.Artifact
	survivors := make([]domain.Artifact, 0, len(artifacts))

	if policy.MaxAgeDays > 0 {
		cutoff := now.UTC().AddDate(0, 0, -policy.MaxAgeDays)
		for _, a := range artifacts {
			if a.CreatedAt.Before(cutoff) {
				doomed = append(doomed, a)
			} else {
				survivors = append(survivors, a)
			}
		}
	} else {
		survivors = append(survivors, artifacts...)
	}

	if policy.MaxCount > 0 && len(survivors) > policy.MaxCount {
		domain.SortNewestFirst(survivors)
		doomed = append(doomed, survivors[policy.MaxCount:]...)
	}

	return doomed
}

// Retention applies policies to the local backup directory and to remote
// stores. Every failure inside a sweep is logged and skipped: retention
// is best-effort by contract, the artifact of the current run is already
// safe when a sweep starts.
type Retention struct {
	logger  Logger
	metrics metrics.Metrics
	now     func() time.Time
}

func NewRetention(logger Logger, m metrics.Metrics) *Retention {
	return &Retention{logger: logger, metrics: m, now: time.Now}
}

// EnforceLocal sweeps one source's artifacts in the backup directory and
// returns how many were removed.
func (r *Retention) EnforceLocal(local LocalStore, prefix string, policy domain.RetentionPolicy) int {
	if !policy.Enabled() {
		return 0
	}

	artifacts, err := local.List(prefix)
	if err != nil {
		r.logger.Warnf("[%s] Local retention skipped: %v", prefix, err)
		return 0
	}

	removed := 0
	for _, a := range Plan(artifacts, policy, r.now()) {
		if err := local.Remove(a.Name); err != nil {
			r.logger.Warnf("[%s] %v", prefix, &domain.RetentionError{Store: "local", Name: a.Name, Err: err})
			continue
		}
		r.logger.Infof("[%s] Removed expired local backup: %s", prefix, a.Name)
		r.metrics.IncArtifactsRemoved("local")
		removed++
	}

	return removed
}

// EnforceRemote sweeps the remote target. An age-only policy delegates
// to the store's server-side sweep; otherwise the listing is planned the
// same way the local sweep is. Returns how many objects were removed,
// zero for the delegated sweep, which reports no per-object outcome.
func (r *Retention) EnforceRemote(ctx context.Context, store domain.ObjectStore, storeName string, policy domain.RetentionPolicy) int {
	if !policy.Enabled() {
		return 0
	}

	if policy.AgeOnly() {
		if err := store.RemoveOlderThan(ctx, policy.MaxAgeDays); err != nil {
			r.logger.Warnf("%v", &domain.RetentionError{Store: storeName, Err: err})
			return 0
		}
		r.logger.Infof("Remote retention sweep delegated to %s (older than %d days)", storeName, policy.MaxAgeDays)
		return 0
	}

	objects, err := store.List(ctx)
	if err != nil {
		r.logger.Warnf("%v", &domain.RetentionError{Store: storeName, Err: err})
		return 0
	}

	artifacts := make([]domain.Artifact, 0, len(objects))
	for _, obj := range objects {
		a, err := domain.ParseArtifactName(obj.Name)
		if err != nil {
			continue
		}
		a.Size = obj.Size
		artifacts = append(artifacts, a)
	}

	removed := 0
	for _, a := range Plan(artifacts, policy, r.now()) {
		if err := store.Remove(ctx, a.Name); err != nil {
			r.logger.Warnf("%v", &domain.RetentionError{Store: storeName, Name: a.Name, Err: err})
			continue
		}
		r.logger.Infof("Removed expired remote backup from %s: %s", storeName, a.Name)
		r.metrics.IncArtifactsRemoved(storeName)
		removed++
	}

	return removed
}
