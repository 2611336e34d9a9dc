package compressor

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ArchiveDir writes sourceDir as a gzip-compressed tarball at destPath.
// Entries are rooted at the directory's base name, so extracting the
// archive recreates the directory itself. Symlinks are preserved;
// sockets and device files are skipped.
func (g *Gzip) ArchiveDir(sourceDir, destPath string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to stat source dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", sourceDir)
	}

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}

	gzipWriter, err := gzip.NewWriterLevel(destFile, gzip.BestCompression)
	if err != nil {
		destFile.Close()
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tarWriter := tar.NewWriter(gzipWriter)

	base := filepath.Base(sourceDir)
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		entry, err := d.Info()
		if err != nil {
			return err
		}

		isSymlink := entry.Mode()&fs.ModeSymlink != 0
		if !entry.Mode().IsRegular() && !entry.IsDir() && !isSymlink {
			return nil
		}

		link := ""
		if isSymlink {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(entry, link)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(base, rel))
		if entry.IsDir() {
			header.Name += "/"
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if !entry.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tarWriter, f)
		return err
	})
	if walkErr != nil {
		tarWriter.Close()
		gzipWriter.Close()
		destFile.Close()
		return fmt.Errorf("failed to archive %s: %w", sourceDir, walkErr)
	}

	if err := tarWriter.Close(); err != nil {
		gzipWriter.Close()
		destFile.Close()
		return fmt.Errorf("failed to archive %s: %w", sourceDir, err)
	}
	if err := gzipWriter.Close(); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to archive %s: %w", sourceDir, err)
	}
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("failed to flush dest file: %w", err)
	}
	return nil
}
