package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/hardng/arca/internal/config"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// GDrive mirrors artifacts into a Google Drive folder using a service
// account credentials file. Mirrors receive a best-effort copy after the
// primary flow; they hold no retention state.
type GDrive struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg config.MirrorConfig) (*GDrive, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDrive{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDrive) Name() string {
	return "gdrive"
}

func (g *GDrive) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:    remoteName,
		Parents: []string{g.folderID},
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}
