package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSMirror replicates raw blobs to a Google Cloud Storage bucket, the
// alternate mirror backend for deployments not already on AWS.
type GCSMirror struct {
	Client *storage.Client
	Bucket string
}

func NewGCSMirror(client *storage.Client, bucket string) *GCSMirror {
	return &GCSMirror{Client: client, Bucket: bucket}
}

func (m *GCSMirror) Mirror(ctx context.Context, sha256 string, data []byte) error {
	w := m.Client.Bucket(m.Bucket).Object("sha256/" + sha256).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("store: gcs mirror sha256=%s: %w", sha256, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: gcs mirror sha256=%s: close: %w", sha256, err)
	}
	return nil
}
