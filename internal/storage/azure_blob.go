package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"
)

// BlobArchive implements Archive on Azure Blob Storage
type BlobArchive struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewBlobArchive creates a new Azure Blob Storage archive
func NewBlobArchive(connectionString, containerName string, logger *zap.Logger) (*BlobArchive, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	// Ensure container exists
	_, err = client.CreateContainer(context.Background(), containerName, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure Blob Storage archive initialized",
		zap.String("container", containerName),
	)

	return &BlobArchive{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Save uploads a payload blob named <token>/<kind>-<timestamp>.xml
func (a *BlobArchive) Save(ctx context.Context, contractToken, kind string, payload []byte) (string, error) {
	blobName := archiveName(contractToken, kind)
	contentType := "application/xml"

	_, err := a.client.UploadBuffer(ctx, a.containerName, blobName, payload, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload payload blob: %w", err)
	}

	a.logger.Debug("Carrier payload archived",
		zap.String("blob_name", blobName),
		zap.String("container", a.containerName),
		zap.Int("size", len(payload)),
	)

	return blobName, nil
}

// Load downloads a previously archived payload blob
func (a *BlobArchive) Load(ctx context.Context, archivePath string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, archivePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download payload blob: %w", err)
	}
	return resp.Body, nil
}
