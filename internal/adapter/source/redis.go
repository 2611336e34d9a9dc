package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hardng/arca/internal/adapter/compressor"
	"github.com/hardng/arca/internal/config"
	"github.com/hardng/arca/internal/infrastructure/command"
	"github.com/redis/go-redis/v9"
)

// Redis snapshots a Redis instance with redis-cli --rdb and compresses
// the snapshot in-process. Restore places the expanded RDB file into the
// configured data directory; the server picks it up on its next start.
type Redis struct {
	cfg      config.SourceConfig
	resolver *command.Resolver
	gzip     *compressor.Gzip
}

func NewRedis(cfg config.SourceConfig, resolver *command.Resolver) *Redis {
	return &Redis{cfg: cfg, resolver: resolver, gzip: compressor.NewGzip()}
}

func (r *Redis) Prefix() string { return "redis" }
func (r *Redis) Ext() string    { return ".rdb.gz" }

func (r *Redis) Produce(ctx context.Context, destPath string) error {
	runner, err := r.resolver.Resolve(command.Tool{
		Binary:     "redis-cli",
		Image:      "redis",
		Entrypoint: "redis-cli",
		Binds:      []command.Bind{command.SamePath(filepath.Dir(destPath))},
	})
	if err != nil {
		return err
	}

	rdbPath := destPath + ".rdb"
	args := append(r.connArgs(), "--rdb", rdbPath)

	cmd := runner.Command(ctx, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(rdbPath)
		return fmt.Errorf("redis-cli rdb dump failed: %w, output: %s", err, string(output))
	}
	defer os.Remove(rdbPath)

	if err := r.gzip.Compress(rdbPath, destPath); err != nil {
		return fmt.Errorf("failed to compress rdb snapshot: %w", err)
	}

	return nil
}

// Ping checks the instance in-process; redis-cli is only needed for the
// dump itself.
func (r *Redis) Ping(ctx context.Context) error {
	opts, err := r.options()
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) Restore(ctx context.Context, artifactPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.gzip.Decompress(artifactPath, r.Target()); err != nil {
		return fmt.Errorf("failed to expand rdb snapshot: %w", err)
	}

	return nil
}

func (r *Redis) Target() string {
	return filepath.Join(r.cfg.Dir, "dump.rdb")
}

func (r *Redis) connArgs() []string {
	if r.cfg.URI != "" {
		return []string{"-u", r.cfg.URI}
	}

	args := []string{"-h", r.cfg.Host, "-p", strconv.Itoa(r.cfg.Port)}
	if r.cfg.Password != "" {
		args = append(args, "-a", r.cfg.Password, "--no-auth-warning")
	}
	return args
}

func (r *Redis) options() (*redis.Options, error) {
	if r.cfg.URI != "" {
		opts, err := redis.ParseURL(r.cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("invalid redis uri: %w", err)
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port),
		Password: r.cfg.Password,
	}, nil
}
