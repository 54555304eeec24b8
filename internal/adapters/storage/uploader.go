package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"devevents/internal/domain"
)

// S3Config holds configuration for an S3-compatible bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible services; enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// UploaderConfig holds configuration for creating an uploader.
type UploaderConfig struct {
	Provider      string
	PublicBaseURL string
	S3            S3Config
}

// objectPutter is the subset of *s3.Client used by the uploader.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewUploader creates an uploader from config. Provider "s3" stores objects in S3;
// "noop" or unknown only logs and returns the URL the object would have.
func NewUploader(config UploaderConfig, logger *slog.Logger) (domain.ImageUploader, error) {
	switch config.Provider {
	case "s3":
		if config.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 uploader: bucket is required")
		}
		awsCfg := aws.Config{
			Region: config.S3.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					config.S3.AccessKeyID,
					config.S3.SecretAccessKey,
					"",
				),
			),
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if config.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(config.S3.Endpoint)
				o.UsePathStyle = true
			}
		})
		baseURL := config.PublicBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", config.S3.Bucket, config.S3.Region)
		}
		return &s3Uploader{client: client, bucket: config.S3.Bucket, baseURL: baseURL}, nil
	case "noop":
		return &noopUploader{baseURL: config.PublicBaseURL, logger: logger}, nil
	default:
		logger.Warn("unknown upload provider, using noop", "provider", config.Provider)
		return &noopUploader{baseURL: config.PublicBaseURL, logger: logger}, nil
	}
}

// objectKey returns "{folder}/{uuid}{ext}" for the uploaded file.
func objectKey(opts domain.UploadOptions) string {
	ext := strings.ToLower(path.Ext(opts.Filename))
	return path.Join(opts.Folder, uuid.NewString()+ext)
}

func publicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + key
}

type s3Uploader struct {
	client  objectPutter
	bucket  string
	baseURL string
}

func (u *s3Uploader) Upload(ctx context.Context, data []byte, opts domain.UploadOptions) (domain.UploadResult, error) {
	key := objectKey(opts)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return domain.UploadResult{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return domain.UploadResult{Key: key, URL: publicURL(u.baseURL, key)}, nil
}

type noopUploader struct {
	baseURL string
	logger  *slog.Logger
}

func (n *noopUploader) Upload(ctx context.Context, data []byte, opts domain.UploadOptions) (domain.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadResult{}, err
	}
	key := objectKey(opts)
	n.logger.InfoContext(ctx, "image would be uploaded (noop)", "key", key, "bytes", len(data))
	return domain.UploadResult{Key: key, URL: publicURL(n.baseURL, key)}, nil
}
