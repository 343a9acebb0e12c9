package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploaderUpload(t *testing.T) {
	fake := &fakePutObject{}
	uploader := newS3Uploader(fake, config.S3Config{Bucket: "receipts", Region: "sa-east-1", Prefix: "/invoices/"}, zap.NewNop())

	location, err := uploader.Upload(context.Background(), "0006-00000012.pdf", "application/pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	assert.Equal(t, "https://receipts.s3.sa-east-1.amazonaws.com/invoices/0006-00000012.pdf", location)
	assert.Equal(t, "receipts", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "invoices/0006-00000012.pdf", aws.ToString(fake.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("%PDF"), fake.body)
}

func TestS3UploaderWrapsErrors(t *testing.T) {
	boom := errors.New("access denied")
	uploader := newS3Uploader(&fakePutObject{err: boom}, config.S3Config{Bucket: "b", Region: "r"}, zap.NewNop())

	_, err := uploader.Upload(context.Background(), "x.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, boom)
}

func TestNewUploaderWithoutBucket(t *testing.T) {
	uploader, err := NewUploader(context.Background(), config.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}

	_, err = uploader.Upload(context.Background(), "x.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, ErrDisabled)
}
