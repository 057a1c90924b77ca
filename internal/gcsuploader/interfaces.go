package gcsuploader

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// Uploader stores a blob under a bucket and object name.
type Uploader interface {
	Upload(ctx context.Context, bucketName, objectName, contentType string, data []byte) error
	Close() error
}

// GCSUploader is the Google Cloud Storage implementation of Uploader.
type GCSUploader struct {
	client *storage.Client
}

// NewGCSUploader creates a storage client using Application Default Credentials.
func NewGCSUploader(ctx context.Context) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSUploader: create storage client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

// Upload delegates to UploadBytes.
func (u *GCSUploader) Upload(ctx context.Context, bucketName, objectName, contentType string, data []byte) error {
	return UploadBytes(ctx, u.client, bucketName, objectName, contentType, data)
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

var _ Uploader = (*GCSUploader)(nil)
