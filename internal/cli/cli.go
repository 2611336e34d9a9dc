package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hardng/arca/internal/app"
	"github.com/hardng/arca/internal/config"
	"github.com/hardng/arca/internal/domain"
)

const version = "1.1.0"

const usage = `arca backs up MongoDB, Redis, Nginx and Nacos into compressed,
timestamped artifacts with optional S3-compatible upload, mirroring and
retention.

Usage:
  arca <source> [flags]    source: mongo | redis | nginx | nacos
  arca version
  arca help

Run "arca <source> --help" for the per-source flags.
`

// Run executes one invocation and returns the process exit code: 0 for
// success and for an operator-declined restore, 1 for any fatal error.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "arca %s (%s)\n", version, runtime.Version())
		return 0
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return 0
	}

	kind := args[0]
	switch kind {
	case config.KindMongo, config.KindRedis, config.KindNginx, config.KindNacos:
	default:
		fmt.Fprintf(stderr, "unknown source %q\n\n%s", kind, usage)
		return 1
	}

	if err := runSource(kind, args[1:], stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) || errors.Is(err, domain.ErrRestoreCancelled) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runSource(kind string, args []string, stderr io.Writer) error {
	fs, f := newFlagSet(kind)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if f.backup && f.restoreRef != "" {
		return &domain.ConfigError{Reason: "--backup and --restore are mutually exclusive"}
	}
	if f.restoreRef != "" && fs.Changed("schedule") {
		return &domain.ConfigError{Reason: "--schedule only applies to backups"}
	}

	cfg, err := config.Load(kind, f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, fs, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// A schedule from the config file does not turn an ad-hoc restore
	// into a daemon.
	daemon := cfg.App.Schedule != "" && f.restoreRef == ""

	application, err := app.New(cfg, daemon)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if f.restoreRef != "" {
		return application.Restore(ctx, f.restoreRef, f.yes)
	}
	if daemon {
		return application.RunDaemon(ctx, cfg.App.Schedule)
	}
	return application.Backup(ctx)
}
