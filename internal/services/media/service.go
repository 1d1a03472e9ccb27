package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/pkg/storage"
)

var (
	ErrInvalidDataURL  = errors.New("malformed data url")
	ErrInvalidFileType = errors.New("unsupported image format")
	ErrImageTooLarge   = errors.New("image too large")
	ErrPreviewTimeout  = errors.New("preview took too long")
)

const (
	MaxImageSize       = 10 * 1024 * 1024 // 10MB
	ThumbnailMaxWidth  = 400
	ThumbnailMaxHeight = 300
)

// AllowedImageTypes is the evidence allow-list. SVG, BMP and TIFF are
// accepted for storage but skipped by the thumbnailer.
var AllowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/bmp":     true,
	"image/tiff":    true,
}

type Service struct {
	minio          *minio.Client
	bucket         string
	previewTimeout time.Duration
}

func NewService(minioClient *minio.Client, bucket string, previewTimeout time.Duration) *Service {
	return &Service{
		minio:          minioClient,
		bucket:         bucket,
		previewTimeout: previewTimeout,
	}
}

// StoreInline decodes one inline evidence image and writes it under its
// record, returning the serving URL the record keeps. Thumbnails are best
// effort and never fail the upload.
func (s *Service) StoreInline(ctx context.Context, recordID int64, pos int, dataURL string) (string, error) {
	contentType, data, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if !AllowedImageTypes[contentType] {
		return "", ErrInvalidFileType
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	objectName := fmt.Sprintf("records/%d/%d_%s%s",
		recordID, pos, uuid.New().String(), storage.ExtFromContentType(contentType))

	fileURL, err := storage.UploadBytes(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", err
	}

	if err := s.storeThumbnail(ctx, recordID, objectName, data); err != nil {
		log.Warn().Err(err).Str("object", objectName).Msg("Failed to generate thumbnail")
	}
	return fileURL, nil
}

// Preview fetches a stored evidence image back as a data url, waiting at
// most the configured preview timeout.
func (s *Service) Preview(ctx context.Context, fileURL string) (string, error) {
	objectName, err := s.objectName(fileURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.previewTimeout)
	defer cancel()

	obj, err := s.minio.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to open object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrPreviewTimeout
		}
		return "", fmt.Errorf("failed to read object: %w", err)
	}

	stat, err := obj.Stat()
	contentType := "application/octet-stream"
	if err == nil && stat.ContentType != "" {
		contentType = stat.ContentType
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

// Remove deletes a stored evidence image and its thumbnail, if any.
func (s *Service) Remove(ctx context.Context, fileURL string) error {
	objectName, err := s.objectName(fileURL)
	if err != nil {
		return err
	}
	if err := storage.DeleteFile(ctx, s.bucket, objectName); err != nil {
		return err
	}
	storage.DeleteFile(ctx, s.bucket, thumbName(objectName))
	return nil
}

// ThumbnailURL returns the thumbnail location for a stored image URL, true
// when one could exist for its format.
func (s *Service) ThumbnailURL(fileURL string) (string, bool) {
	objectName, err := s.objectName(fileURL)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(lastExt(objectName)) {
	case ".svg", ".bmp", ".tiff", ".bin":
		return "", false
	}
	return strings.Replace(fileURL, objectName, thumbName(objectName), 1), true
}

// ParseDataURL splits a "data:<type>;base64,<payload>" string into its
// content type and decoded bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return "", nil, ErrInvalidDataURL
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == meta {
		// Only base64 payloads are accepted.
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return strings.ToLower(strings.TrimSpace(contentType)), data, nil
}

// --- internal helpers ---

func (s *Service) storeThumbnail(ctx context.Context, recordID int64, objectName string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Vector and exotic raster formats are served full size.
		return nil
	}

	thumb := resize.Thumbnail(ThumbnailMaxWidth, ThumbnailMaxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return err
	}

	_, err = storage.UploadBytes(ctx, s.bucket, thumbName(objectName), &buf, int64(buf.Len()), "image/jpeg")
	return err
}

// objectName extracts the bucket-relative object name from a stored URL.
func (s *Service) objectName(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	name := strings.TrimPrefix(path, s.bucket+"/")
	if name == path || name == "" {
		return "", fmt.Errorf("file URL outside the evidence bucket")
	}
	return name, nil
}

func thumbName(objectName string) string {
	base := strings.TrimSuffix(objectName, lastExt(objectName))
	return base + "_thumb.jpg"
}

func lastExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
