package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/logger"
)

type Config struct {
	// Custom endpoint for S3 compatible storages (MinIO etc.)
	// Leave empty for AWS
	Endpoint string

	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// Base of the returned public object URLs
	// Derived from endpoint and bucket if not set
	PublicBaseURL string
}

// objectPutter is the part of the S3 client the uploader needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader sends local files to an S3 compatible object store.
// The client is built once at startup and reused for every call
type S3Uploader struct {
	client  objectPutter
	bucket  string
	baseURL string
	logger  logger.Logger
}

func NewS3Uploader(ctx context.Context, cfg Config, log logger.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("can't load s3 config. Err: %w", err)
	}

	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  log,
	}, nil
}

// Upload stores the file at localPath in the bucket and returns its public URL.
// The local file is removed after the attempt whatever the outcome;
// a removal failure is logged, never returned.
// Empty localPath is not an error: there was simply nothing to upload
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	defer u.removeLocal(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		u.logger.Error("can't open local file for upload", "path", localPath, "error", err)
		return "", apperrors.ErrUploadFailed
	}
	defer f.Close() // nolint:errcheck

	key := objectKey(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		u.logger.Error("object upload failed", "key", key, "error", err)
		return "", apperrors.ErrUploadFailed
	}

	return u.baseURL + "/" + key, nil
}

func (u *S3Uploader) removeLocal(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		u.logger.Warn("failed to remove local temp file", "path", path, "error", err)
	}
}

// objectKey builds a date-partitioned unique key keeping the file extension
func objectKey(localPath string) string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Ext(localPath))
}

func contentType(localPath string) string {
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
