// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/config"
)

// ObjectStore is the object storage the services write images to.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

type StorageService struct {
	s3Client  *s3.S3
	config    config.StorageConfig
	publicURL string
	tracer    trace.Tracer
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// NewStorageService uses S3 (or an S3-compatible endpoint) when credentials
// are configured and the local uploads directory otherwise. serverURL is the
// public base of this server, used for local file URLs.
func NewStorageService(cfg config.StorageConfig, serverURL string) (*StorageService, error) {
	s := &StorageService{
		config: cfg,
		tracer: otel.Tracer("beycollection/storage"),
	}

	if cfg.AccessKeyID == "" {
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create local storage directory: %w", err)
		}
		s.publicURL = strings.TrimSuffix(serverURL, "/") + "/" + strings.Trim(cfg.LocalURLPrefix, "/")
		logrus.WithField("path", cfg.LocalPath).Warn("Object storage credentials not set, using local disk")
		return s, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(cfg.ForcePathStyle)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	s.publicURL = s.s3BaseURL()
	return s, nil
}

// Upload stores data under key, replacing any existing object.
func (s *StorageService) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "storage.upload", trace.WithAttributes(
		attribute.String("storage.key", key),
		attribute.Int("storage.size", len(data)),
	))
	defer span.End()

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	var err error
	if s.s3Client != nil {
		err = s.uploadToS3(ctx, key, data, contentType)
	} else {
		err = s.uploadToLocal(key, data)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	return &UploadResult{
		URL:      s.PublicURL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *StorageService) uploadToLocal(key string, data []byte) error {
	path, err := s.localPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Download returns the object bytes and content type. A missing object is a
// not_found AppError.
func (s *StorageService) Download(ctx context.Context, key string) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.download", trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	if s.s3Client == nil {
		path, err := s.localPath(key)
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", apperrors.NotFound("image.not_found", "Object not found", err)
		}
		if err != nil {
			recordSpanError(span, err)
			return nil, "", fmt.Errorf("failed to read file: %w", err)
		}
		return data, http.DetectContentType(data), nil
	}

	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, "", apperrors.NotFound("image.not_found", "Object not found", err)
		}
		recordSpanError(span, err)
		return nil, "", fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		recordSpanError(span, err)
		return nil, "", fmt.Errorf("failed to read S3 object: %w", err)
	}
	return data, aws.StringValue(out.ContentType), nil
}

func (s *StorageService) Exists(ctx context.Context, key string) (bool, error) {
	if s.s3Client == nil {
		path, err := s.localPath(key)
		if err != nil {
			return false, err
		}
		_, err = os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return err == nil, err
	}

	_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat S3 object: %w", err)
	}
	return true, nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "storage.delete", trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	if s.s3Client == nil {
		path, err := s.localPath(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			recordSpanError(span, err)
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

func (s *StorageService) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// KeyFromURL reverses PublicURL. It reports false for URLs outside this
// store.
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *StorageService) s3BaseURL() string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimSuffix(s.config.PublicBaseURL, "/")
	}

	if s.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.Endpoint, "/"), s.config.Bucket)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.config.Bucket, s.config.Region)
}

// localPath resolves key under the local root and rejects keys escaping it.
func (s *StorageService) localPath(key string) (string, error) {
	root := filepath.Clean(s.config.LocalPath)
	path := filepath.Join(root, filepath.FromSlash(key))
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", apperrors.Validation("file.invalid_type", "Invalid object key")
	}
	return path, nil
}

// ValidateImage checks the file signature of an uploaded image.
func ValidateImage(data []byte) error {
	if !isValidImageType(data) {
		return apperrors.Validation("file.invalid_type", "Invalid image file")
	}
	return nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && buffer[0] == 0x89 && buffer[1] == 0x50 && buffer[2] == 0x4E && buffer[3] == 0x47 {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	// WebP
	if len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
