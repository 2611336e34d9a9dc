package objectstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hardng/arca/internal/domain"
	"github.com/hardng/arca/internal/infrastructure/command"
)

// MC drives an S3-compatible store through the MinIO client binary, or
// its docker image when the binary is absent. Every invocation passes an
// explicit --config-dir inside the backup directory, so the alias written
// by one call is visible to the next one even when each call is a fresh
// container.
type MC struct {
	endpoint  Endpoint
	prefix    string
	binary    string
	backupDir string
	configDir string
	resolver  *command.Resolver
	runner    command.Runner
	aliased   bool
}

func NewMC(endpoint Endpoint, prefix, binary, backupDir string, resolver *command.Resolver) *MC {
	if binary == "" {
		binary = "mc"
	}
	return &MC{
		endpoint:  endpoint,
		prefix:    prefix,
		binary:    binary,
		backupDir: backupDir,
		configDir: filepath.Join(backupDir, ".mc"),
		resolver:  resolver,
	}
}

// Configure validates the endpoint and resolves the client tool. It never
// talks to the server: the alias registration that does is deferred to
// the first remote operation, so an unreachable endpoint fails that
// operation instead of the whole run.
func (m *MC) Configure(ctx context.Context) error {
	if m.endpoint.BaseURL == "" {
		return &domain.ConfigError{Reason: "object store endpoint url is required"}
	}
	if m.endpoint.AccessKey == "" || m.endpoint.SecretKey == "" {
		return &domain.ConfigError{Reason: "object store credentials are required"}
	}

	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("cannot create client config dir: %v", err)}
	}

	runner, err := m.resolver.Resolve(command.Tool{
		Binary: m.binary,
		Image:  "minio/mc",
		Binds: []command.Bind{
			command.SamePath(m.backupDir),
			command.SamePath(m.configDir),
		},
	})
	if err != nil {
		return err
	}
	m.runner = runner
	m.aliased = false

	return nil
}

func (m *MC) Upload(ctx context.Context, localPath, remoteName string) error {
	if err := m.ensureAlias(ctx); err != nil {
		return &domain.UploadError{Err: err}
	}

	if out, err := m.run(ctx, "cp", localPath, m.target(remoteName)); err != nil {
		return &domain.UploadError{Err: fmt.Errorf("mc cp failed: %w, output: %s", err, out)}
	}
	return nil
}

func (m *MC) List(ctx context.Context) ([]domain.Object, error) {
	if err := m.ensureAlias(ctx); err != nil {
		return nil, err
	}

	out, err := m.runQuiet(ctx, "ls", "--json", m.target("")+"/")
	if err != nil {
		return nil, fmt.Errorf("mc ls failed: %w", err)
	}

	type lsEntry struct {
		Type         string    `json:"type"`
		Key          string    `json:"key"`
		Size         int64     `json:"size"`
		LastModified time.Time `json:"lastModified"`
	}

	var objects []domain.Object
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry lsEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Type != "file" {
			continue
		}

		name := path.Base(entry.Key)
		if !domain.MatchesConvention(name, m.prefix) {
			continue
		}

		objects = append(objects, domain.Object{
			Name:         name,
			Size:         entry.Size,
			LastModified: entry.LastModified,
		})
	}
	return objects, scanner.Err()
}

func (m *MC) Remove(ctx context.Context, remoteName string) error {
	if err := m.ensureAlias(ctx); err != nil {
		return err
	}

	if out, err := m.run(ctx, "rm", m.target(remoteName)); err != nil {
		return fmt.Errorf("mc rm failed: %w, output: %s", err, out)
	}
	return nil
}

// RemoveOlderThan sweeps the whole target with the client's server-side
// age filter, the same way the mc-based backup jobs it replaces did.
func (m *MC) RemoveOlderThan(ctx context.Context, days int) error {
	if err := m.ensureAlias(ctx); err != nil {
		return err
	}

	args := []string{"rm", "--recursive", "--force", "--older-than", strconv.Itoa(days) + "d", m.target("") + "/"}
	if out, err := m.run(ctx, args...); err != nil {
		return fmt.Errorf("mc rm --older-than failed: %w, output: %s", err, out)
	}
	return nil
}

func (m *MC) Download(ctx context.Context, remoteName, localPath string) error {
	if err := m.ensureAlias(ctx); err != nil {
		return err
	}

	if out, err := m.run(ctx, "cp", m.target(remoteName), localPath); err != nil {
		return fmt.Errorf("mc cp failed: %w, output: %s", err, out)
	}
	return nil
}

func (m *MC) Location(remoteName string) string {
	return m.target(remoteName)
}

// ensureAlias registers the endpoint alias once per run. Re-registering
// an existing alias overwrites it, so retries are safe.
func (m *MC) ensureAlias(ctx context.Context) error {
	if m.aliased {
		return nil
	}

	out, err := m.run(ctx, "alias", "set", m.endpoint.Alias, m.endpoint.BaseURL, m.endpoint.AccessKey, m.endpoint.SecretKey)
	if err != nil {
		return fmt.Errorf("mc alias set failed: %w, output: %s", err, out)
	}
	m.aliased = true

	return nil
}

func (m *MC) target(name string) string {
	p := m.endpoint.RemotePath(name)
	if p == "" {
		return m.endpoint.Alias
	}
	return m.endpoint.Alias + "/" + p
}

func (m *MC) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"--config-dir", m.configDir}, args...)
	out, err := m.runner.Command(ctx, full...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// runQuiet keeps stdout parseable by collecting stderr separately.
func (m *MC) runQuiet(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"--config-dir", m.configDir}, args...)
	cmd := m.runner.Command(ctx, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(string(out))
		}
		return out, fmt.Errorf("%w, output: %s", err, detail)
	}
	return out, nil
}
