package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO satisfies Uploader against any S3-compatible endpoint, grounded
// on the teacher's MinIOService.PutFileWithHash. main.go selects it in
// place of the AWS CLI uploader for mock runs. A Job calls its Uploader
// only when its S3Bucket is set, and Worker.SpawnJob always leaves
// S3Bucket empty, so jobs spawned by a Worker never reach this step.
type MinIO struct {
	client *minio.Client
}

// NewMinIO connects to an S3-compatible endpoint (host:port, no scheme).
func NewMinIO(endpoint, accessKey, secretKey string, secure bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio uploader: connect to %s: %w", endpoint, err)
	}
	return &MinIO{client: client}, nil
}

// Upload ensures bucket exists and puts sourcePath's contents under its
// base filename.
func (m *MinIO) Upload(ctx context.Context, sourcePath, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio uploader: check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("minio uploader: create bucket %s: %w", bucket, err)
		}
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("minio uploader: open %s: %w", sourcePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("minio uploader: stat %s: %w", sourcePath, err)
	}

	objectName := filepath.Base(sourcePath)
	_, err = m.client.PutObject(ctx, bucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio uploader: put %s/%s: %w", bucket, objectName, err)
	}

	if err := os.Remove(sourcePath); err != nil {
		return fmt.Errorf("minio uploader: remove local %s after upload: %w", sourcePath, err)
	}

	return nil
}

// Client exposes the underlying minio client for tests that want to
// verify the migrated object (StatObject round-trip).
func (m *MinIO) Client() *minio.Client {
	return m.client
}
