package command

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hardng/arca/internal/domain"
)

// Bind is one host path mounted into the fallback container. Dump tools
// are pointed at host paths, so the backup directory is mounted at the
// same path inside the container and the same arguments work for both
// runners.
type Bind struct {
	Host      string
	Container string
}

// SamePath mounts a host path at the identical container path.
func SamePath(path string) Bind {
	return Bind{Host: path, Container: path}
}

// Tool describes an external capability and its containerized equivalent.
type Tool struct {
	Binary     string
	Image      string
	Entrypoint string
	Binds      []Bind
}

// Runner builds executable commands for a resolved tool.
type Runner interface {
	Command(ctx context.Context, args ...string) *exec.Cmd
	// Description renders the runner for log lines, e.g. "mongodump" or
	// "docker run mongo:7".
	Description() string
}

// Resolver picks an executor for a tool: the native binary first, then a
// docker-wrapped equivalent, else domain.ErrToolNotFound.
type Resolver struct {
	lookPath func(string) (string, error)
}

func NewResolver() *Resolver {
	return &Resolver{lookPath: exec.LookPath}
}

func (r *Resolver) Resolve(t Tool) (Runner, error) {
	if path, err := r.lookPath(t.Binary); err == nil {
		return &nativeRunner{name: t.Binary, path: path}, nil
	}

	if t.Image != "" {
		if dockerPath, err := r.lookPath("docker"); err == nil {
			return &dockerRunner{tool: t, dockerPath: dockerPath}, nil
		}
	}

	return nil, fmt.Errorf("%s (native binary or docker fallback): %w", t.Binary, domain.ErrToolNotFound)
}

type nativeRunner struct {
	name string
	path string
}

func (n *nativeRunner) Command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, n.path, args...)
}

func (n *nativeRunner) Description() string {
	return n.name
}

type dockerRunner struct {
	tool       Tool
	dockerPath string
}

func (d *dockerRunner) Command(ctx context.Context, args ...string) *exec.Cmd {
	// host networking so localhost endpoints resolve the same way they do
	// for the native binary
	dockerArgs := []string{"run", "--rm", "--network", "host"}
	for _, b := range d.tool.Binds {
		dockerArgs = append(dockerArgs, "-v", b.Host+":"+b.Container)
	}
	if d.tool.Entrypoint != "" {
		dockerArgs = append(dockerArgs, "--entrypoint", d.tool.Entrypoint)
	}
	dockerArgs = append(dockerArgs, d.tool.Image)
	dockerArgs = append(dockerArgs, args...)
	return exec.CommandContext(ctx, d.dockerPath, dockerArgs...)
}

func (d *dockerRunner) Description() string {
	return "docker run " + d.tool.Image
}
