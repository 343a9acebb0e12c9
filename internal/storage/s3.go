package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pyar/asocmembers/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("storage_disabled")

// Uploader stores generated documents and returns where they ended up.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client putObjectAPI
	bucket string
	region string
	prefix string
	log    *zap.Logger
}

func newS3Uploader(client putObjectAPI, cfg config.S3Config, log *zap.Logger) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(cfg.Prefix, "/"),
		log:    log.Named("storage.s3"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	objectKey := path.Join(u.prefix, strings.TrimLeft(key, "/"))
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}

	location := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, objectKey)
	u.log.Info("uploaded object", zap.String("key", objectKey), zap.Int("bytes", len(body)))
	return location, nil
}

type disabledUploader struct{}

func (disabledUploader) Upload(context.Context, string, string, []byte) (string, error) {
	return "", ErrDisabled
}

// NewUploader builds the S3 uploader; without a bucket every upload fails with ErrDisabled.
func NewUploader(ctx context.Context, appCfg config.Config, log *zap.Logger) (Uploader, error) {
	if appCfg.S3.Bucket == "" {
		log.Warn("S3 bucket not configured, invoice upload disabled")
		return disabledUploader{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(appCfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newS3Uploader(s3.NewFromConfig(awsCfg), appCfg.S3, log), nil
}

var Module = fx.Module("storage",
	fx.Provide(func(appCfg config.Config, log *zap.Logger) (Uploader, error) {
		return NewUploader(context.Background(), appCfg, log)
	}),
)
