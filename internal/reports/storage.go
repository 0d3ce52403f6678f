package reports

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"estateleads_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	downloadURLTTL  = 15 * time.Minute
)

// MinIOStore uploads generated reports to object storage.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStore{client: client, bucket: cfg.GetMinioBucketReports()}, nil
}

// EnsureBucketExists creates the reports bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// UploadReport stores the workbook and returns a presigned download URL.
func (s *MinIOStore) UploadReport(ctx context.Context, objectName string, content []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: xlsxContentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, downloadURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign report download: %w", err)
	}
	return presigned.String(), nil
}

var _ Uploader = (*MinIOStore)(nil)
