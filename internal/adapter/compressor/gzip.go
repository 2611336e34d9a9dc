package compressor

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

type Gzip struct{}

func NewGzip() *Gzip {
	return &Gzip{}
}

func (g *Gzip) Compress(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}

	gzipWriter, err := gzip.NewWriterLevel(destFile, gzip.BestCompression)
	if err != nil {
		destFile.Close()
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := io.Copy(gzipWriter, sourceFile); err != nil {
		gzipWriter.Close()
		destFile.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}

	// Close flushes the gzip footer; a deferred close would swallow the error.
	if err := gzipWriter.Close(); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("failed to flush dest file: %w", err)
	}
	return nil
}

func (g *Gzip) Decompress(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	gzipReader, err := gzip.NewReader(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}

	if _, err := io.Copy(destFile, gzipReader); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("failed to flush dest file: %w", err)
	}
	return nil
}
