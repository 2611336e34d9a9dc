package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hardng/arca/internal/domain"
)

// Restore replays an artifact into a live data source. Fail-closed: the
// source is not touched until the operator confirms, and a declined
// prompt leaves nothing behind, including a freshly downloaded artifact.
type Restore struct {
	restorer  domain.Restorer
	store     domain.ObjectStore
	local     LocalStore
	logger    Logger
	input     io.Reader
	output    io.Writer
	assumeYes bool
}

type RestoreParams struct {
	Restorer domain.Restorer
	Store    domain.ObjectStore // nil when no remote is configured
	Local    LocalStore
	Logger   Logger
	Input    io.Reader // confirmation source, os.Stdin in production
	Output   io.Writer // prompt destination, os.Stdout in production

	AssumeYes bool
}

func NewRestore(p RestoreParams) *Restore {
	return &Restore{
		restorer:  p.Restorer,
		store:     p.Store,
		local:     p.Local,
		logger:    p.Logger,
		input:     p.Input,
		output:    p.Output,
		assumeYes: p.AssumeYes,
	}
}

// Execute resolves ref to an artifact file, asks for confirmation and
// feeds the file into the source's restore tool. ref is tried as a path
// first, then as a name in the backup directory, then as a remote object.
func (uc *Restore) Execute(ctx context.Context, ref string) error {
	artifactPath, cleanup, err := uc.resolve(ctx, ref)
	if err != nil {
		return err
	}
	defer cleanup()

	if !uc.assumeYes {
		confirmed, err := uc.confirm()
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !confirmed {
			uc.logger.Infof("Restore cancelled, nothing was changed")
			return domain.ErrRestoreCancelled
		}
	}

	uc.logger.Infof("Restoring %s into %s...", filepath.Base(artifactPath), uc.restorer.Target())
	if err := uc.restorer.Restore(ctx, artifactPath); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	uc.logger.Infof("Successfully restored %s", uc.restorer.Target())
	return nil
}

func (uc *Restore) resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, noop, nil
	}

	name := filepath.Base(ref)
	if uc.local != nil {
		if p := uc.local.Path(name); p != ref {
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				uc.logger.Infof("Found %s in the backup directory", name)
				return p, noop, nil
			}
		}
	}

	if uc.store == nil {
		return "", noop, fmt.Errorf("artifact %s not found locally and no remote store is configured", ref)
	}

	stagingDir, err := os.MkdirTemp("", "arca-restore-")
	if err != nil {
		return "", noop, fmt.Errorf("create staging directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(stagingDir) }

	localPath := filepath.Join(stagingDir, name)
	uc.logger.Infof("Downloading %s...", uc.store.Location(name))
	if err := uc.store.Download(ctx, name, localPath); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download artifact: %w", err)
	}

	return localPath, cleanup, nil
}

// confirm blocks on one line of input. Only "y" or "yes", case-insensitive,
// counts as consent; EOF and everything else decline.
func (uc *Restore) confirm() (bool, error) {
	fmt.Fprintf(uc.output, "restore will overwrite %s. Continue? [y/N]: ", uc.restorer.Target())

	line, err := bufio.NewReader(uc.input).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
