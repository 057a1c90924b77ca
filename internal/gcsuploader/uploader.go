package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// UploadBytes writes data to gs://bucketName/objectName.
// It assumes Application Default Credentials are configured.
func UploadBytes(ctx context.Context, client *storage.Client, bucketName, objectName, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadBytes: copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadBytes: finalize upload: %w", err)
	}

	return nil
}

// ParseURI splits "gs://bucket/prefix" into bucket and object prefix.
// The prefix may be empty.
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return parts[0], prefix, nil
}

// ObjectName joins a prefix and a file name into an object path.
func ObjectName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
