package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hardng/arca/internal/domain"
)

// Local manages the backup directory artifacts are produced into. Listing
// is filtered to the naming convention, so lock files, client config
// directories and unrelated files sharing the directory are invisible to
// retention.
type Local struct {
	basePath string
}

func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

func (l *Local) Dir() string {
	return l.basePath
}

func (l *Local) Path(name string) string {
	return filepath.Join(l.basePath, name)
}

// List returns the artifacts present for one source prefix, sized from
// the filesystem, timestamped from their names.
func (l *Local) List(prefix string) ([]domain.Artifact, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var artifacts []domain.Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		artifact, err := domain.ParseArtifactName(entry.Name())
		if err != nil || artifact.Prefix != prefix {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to get file info for %s: %w", entry.Name(), err)
		}
		artifact.Size = info.Size()
		artifact.LocalPath = l.Path(entry.Name())

		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

func (l *Local) Remove(name string) error {
	if err := os.Remove(l.Path(name)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// SweepPartials deletes half-written artifacts a killed run left behind.
// They are untrusted and never resumed.
func (l *Local) SweepPartials(prefix string) (int, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, domain.PartialSuffix) {
			continue
		}
		if !strings.HasPrefix(name, prefix+"_backup_") {
			continue
		}

		if err := os.Remove(l.Path(name)); err != nil {
			return removed, fmt.Errorf("failed to delete partial %s: %w", name, err)
		}
		removed++
	}

	return removed, nil
}
