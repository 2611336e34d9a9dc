package source

import (
	"context"

	"github.com/hardng/arca/internal/adapter/compressor"
)

// Dir archives a directory tree in-process. It backs the nginx and nacos
// sources, whose state is plain files rather than a database.
type Dir struct {
	prefix string
	root   string
	gzip   *compressor.Gzip
}

func NewDir(prefix, root string) *Dir {
	return &Dir{prefix: prefix, root: root, gzip: compressor.NewGzip()}
}

func (d *Dir) Prefix() string { return d.prefix }
func (d *Dir) Ext() string    { return ".tar.gz" }

func (d *Dir) Produce(ctx context.Context, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.gzip.ArchiveDir(d.root, destPath)
}
