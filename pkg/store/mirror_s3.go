package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror replicates raw blobs to an S3 bucket, keyed by SHA-256 so the
// remote object key matches the local content address.
type S3Mirror struct {
	Client *s3.Client
	Bucket string
}

func NewS3Mirror(client *s3.Client, bucket string) *S3Mirror {
	return &S3Mirror{Client: client, Bucket: bucket}
}

func (m *S3Mirror) Mirror(ctx context.Context, sha256 string, data []byte) error {
	_, err := m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String("sha256/" + sha256),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("store: s3 mirror sha256=%s: %w", sha256, err)
	}
	return nil
}
