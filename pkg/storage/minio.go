package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/config"
)

var MinIOClient *minio.Client

// ConnectMinIO opens the object store and makes sure the evidence bucket
// exists with public-read access, since stored image paths are served
// straight from the bucket.
func ConnectMinIO(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucket := cfg.Storage.Bucket
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("Created MinIO bucket")
	}

	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Action": ["s3:GetBucketLocation", "s3:ListBucket"],
				"Effect": "Allow",
				"Principal": "*",
				"Resource": ["arn:aws:s3:::%s"]
			},
			{
				"Action": ["s3:GetObject"],
				"Effect": "Allow",
				"Principal": "*",
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucket, bucket)
	if err := client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("Failed to set public policy on bucket")
	}

	MinIOClient = client
	log.Info().Str("endpoint", cfg.Storage.Endpoint).Msg("Connected to MinIO")

	return client, nil
}

// UploadBytes writes one object to the given bucket and returns its serving
// URL.
func UploadBytes(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := MinIOClient.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	cfg := config.AppConfig
	scheme := "http"
	if cfg.Storage.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Storage.Endpoint, bucket, objectName), nil
}

// DeleteFile removes a file from storage
func DeleteFile(ctx context.Context, bucket, objectName string) error {
	return MinIOClient.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
}

// GetPresignedURL generates a temporary URL for private files
func GetPresignedURL(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := MinIOClient.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}

// ExtFromContentType maps an image content type to its file extension.
func ExtFromContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".bin"
	}
}
