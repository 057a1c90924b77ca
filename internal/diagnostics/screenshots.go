// Package diagnostics stores screenshots captured when extraction fails.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/gcsuploader"
)

// Sink persists a PNG screenshot under a descriptive name.
// Save returns the location the artifact was written to.
type Sink interface {
	Save(ctx context.Context, label string, png []byte) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds "<label>-<UTC timestamp>.png" with the label reduced to filesystem-safe characters.
func FileName(label string, at time.Time) string {
	safe := strings.Trim(unsafeChars.ReplaceAllString(label, "-"), "-")
	if safe == "" {
		safe = "error"
	}
	return fmt.Sprintf("%s-%s.png", safe, at.UTC().Format("20060102T150405.000Z"))
}

// LocalSink writes screenshots into a directory, creating it on demand.
type LocalSink struct {
	Dir string
	Now func() time.Time
}

func (s *LocalSink) Save(ctx context.Context, label string, png []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("LocalSink.Save: create dir: %w", err)
	}
	p := filepath.Join(s.Dir, FileName(label, now(s.Now)))
	if err := os.WriteFile(p, png, 0o644); err != nil {
		return "", fmt.Errorf("LocalSink.Save: write file: %w", err)
	}
	return p, nil
}

// GCSSink uploads screenshots to gs://Bucket/Prefix.
type GCSSink struct {
	Uploader gcsuploader.Uploader
	Bucket   string
	Prefix   string
	Now      func() time.Time
}

func (s *GCSSink) Save(ctx context.Context, label string, png []byte) (string, error) {
	object := gcsuploader.ObjectName(s.Prefix, FileName(label, now(s.Now)))
	if err := s.Uploader.Upload(ctx, s.Bucket, object, "image/png", png); err != nil {
		return "", fmt.Errorf("GCSSink.Save: %w", err)
	}
	return "gs://" + s.Bucket + "/" + object, nil
}

// NewSink picks a GCS sink for gs:// targets and a local sink otherwise.
// The returned close function releases the storage client, if any.
func NewSink(ctx context.Context, target string) (Sink, func() error, error) {
	if !strings.HasPrefix(target, "gs://") {
		return &LocalSink{Dir: target}, func() error { return nil }, nil
	}

	bucket, prefix, err := gcsuploader.ParseURI(target)
	if err != nil {
		return nil, nil, err
	}
	uploader, err := gcsuploader.NewGCSUploader(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &GCSSink{Uploader: uploader, Bucket: bucket, Prefix: prefix}, uploader.Close, nil
}

func now(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now()
}
