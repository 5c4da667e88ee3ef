package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// MinIOArchiver stores report JSON in an S3-compatible bucket.
type MinIOArchiver struct {
	put    func(ctx context.Context, key string, data []byte) error
	bucket string
	now    func() time.Time
}

// NewMinIOArchiver connects to the endpoint and makes sure the bucket exists.
func NewMinIOArchiver(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinIOArchiver, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	put := func(ctx context.Context, key string, data []byte) error {
		_, err := cli.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/json"})
		return err
	}
	return newMinIOArchiver(bucket, put), nil
}

func newMinIOArchiver(bucket string, put func(ctx context.Context, key string, data []byte) error) *MinIOArchiver {
	return &MinIOArchiver{put: put, bucket: bucket, now: time.Now}
}

// ObjectKey is reports/2025/01/23/<report name>.json
func (m *MinIOArchiver) ObjectKey(result *types.AnalysisResult) string {
	now := m.now()
	return path.Join("reports", now.Format("2006"), now.Format("01"), now.Format("02"),
		ReportName(result, now)+".json")
}

func (m *MinIOArchiver) Archive(ctx context.Context, result *types.AnalysisResult) (string, error) {
	data, err := reportJSON(result)
	if err != nil {
		return "", err
	}

	key := m.ObjectKey(result)
	if err := m.put(ctx, key, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}
