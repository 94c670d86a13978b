package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/config"
)

// Archive stores raw carrier payloads for later inspection. Payloads are
// written once and never mutated; the archive path is recorded on the
// contract event that triggered the exchange.
type Archive interface {
	Save(ctx context.Context, contractToken, kind string, payload []byte) (string, error)
	Load(ctx context.Context, archivePath string) (io.ReadCloser, error)
}

// NewArchive creates an archive instance based on configuration.
// Local mode writes files under the configured base path; azure mode
// writes blobs to Azure Blob Storage.
func NewArchive(cfg *config.StorageConfig, logger *zap.Logger) (Archive, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalArchive(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewBlobArchive(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// LocalArchive implements Archive on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local archive instance
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Save writes a payload under <token>/<kind>-<timestamp>.xml
func (a *LocalArchive) Save(ctx context.Context, contractToken, kind string, payload []byte) (string, error) {
	archivePath := archiveName(contractToken, kind)
	fullPath := filepath.Join(a.basePath, archivePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write payload: %w", err)
	}

	return archivePath, nil
}

// Load opens a previously archived payload
func (a *LocalArchive) Load(ctx context.Context, archivePath string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(a.basePath, archivePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("payload not found: %s", archivePath)
		}
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	return file, nil
}

func archiveName(contractToken, kind string) string {
	ts := time.Now().UTC().Format("20060102T150405.000")
	return filepath.Join(contractToken, fmt.Sprintf("%s-%s.xml", kind, ts))
}
