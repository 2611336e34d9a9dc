package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hardng/arca/internal/config"
	"github.com/hardng/arca/internal/infrastructure/command"
)

// Mongo dumps and restores a MongoDB deployment through mongodump and
// mongorestore, falling back to the official docker image when the tools
// are not installed.
type Mongo struct {
	cfg      config.SourceConfig
	resolver *command.Resolver
}

func NewMongo(cfg config.SourceConfig, resolver *command.Resolver) *Mongo {
	return &Mongo{cfg: cfg, resolver: resolver}
}

func (m *Mongo) Prefix() string { return "mongo" }
func (m *Mongo) Ext() string    { return ".archive.gz" }

func (m *Mongo) Produce(ctx context.Context, destPath string) error {
	runner, err := m.resolver.Resolve(command.Tool{
		Binary:     "mongodump",
		Image:      "mongo",
		Entrypoint: "mongodump",
		Binds:      []command.Bind{command.SamePath(filepath.Dir(destPath))},
	})
	if err != nil {
		return err
	}

	args := []string{
		fmt.Sprintf("--uri=%s", m.uri()),
		fmt.Sprintf("--archive=%s", destPath),
		"--gzip",
	}

	cmd := runner.Command(ctx, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mongodump failed: %w, output: %s", err, string(output))
	}

	return nil
}

// Ping verifies the deployment answers before dumping. It needs mongosh;
// a missing shell surfaces as domain.ErrToolNotFound so the caller can
// skip the check instead of failing the run.
func (m *Mongo) Ping(ctx context.Context) error {
	runner, err := m.resolver.Resolve(command.Tool{Binary: "mongosh"})
	if err != nil {
		return err
	}

	cmd := runner.Command(ctx, m.uri(), "--quiet", "--eval", "db.runCommand({ ping: 1 })")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mongodb ping failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (m *Mongo) Restore(ctx context.Context, artifactPath string) error {
	runner, err := m.resolver.Resolve(command.Tool{
		Binary:     "mongorestore",
		Image:      "mongo",
		Entrypoint: "mongorestore",
		Binds:      []command.Bind{command.SamePath(filepath.Dir(artifactPath))},
	})
	if err != nil {
		return err
	}

	args := []string{
		fmt.Sprintf("--uri=%s", m.uri()),
		fmt.Sprintf("--archive=%s", artifactPath),
		"--gzip",
		"--drop",
	}

	cmd := runner.Command(ctx, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mongorestore failed: %w, output: %s", err, string(output))
	}

	return nil
}

// Target names what a restore overwrites, with credentials stripped for
// the confirmation prompt.
func (m *Mongo) Target() string {
	uri := m.uri()
	if at := strings.LastIndex(uri, "@"); at != -1 {
		if scheme := strings.Index(uri, "://"); scheme != -1 && scheme+3 < at {
			uri = uri[:scheme+3] + uri[at+1:]
		}
	}
	return uri
}

func (m *Mongo) uri() string {
	if m.cfg.URI != "" {
		return m.cfg.URI
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if m.cfg.User != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s/%s?authSource=admin",
			m.cfg.User, m.cfg.Password, addr, m.cfg.Database)
	}
	return fmt.Sprintf("mongodb://%s/%s", addr, m.cfg.Database)
}
