package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the part of *minio.Client the store uses.
type minioAPI interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// NewMinIOClient connects to the MinIO server at cfg.S3BaseEndpoint. The
// endpoint scheme selects TLS.
func NewMinIOClient(cfg *config.Config) (*minio.Client, error) {
	u, err := url.Parse(cfg.S3BaseEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", cfg.S3BaseEndpoint)
	}

	return minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3RootUser, cfg.S3RootPassword, ""),
		Secure: u.Scheme == "https",
		Region: cfg.S3Region,
	})
}

type MinIOStore struct {
	client minioAPI
	bucket string
	logger logging.Logger
}

func NewMinIOStore(client minioAPI, bucket string, logger logging.Logger) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, logger: logger}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	m.logger.Info(ctx, "bucket created")
	return nil
}

func (m *MinIOStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio put %s/%s: %w", m.bucket, key, err)
	}
	m.logger.Debug(ctx, "blob stored", "key", key, "size", len(data))
	return nil
}

func (m *MinIOStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.getError(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only shows up on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.getError(key, err)
	}
	return data, nil
}

func (m *MinIOStore) getError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return common.ErrorNotFound
	}
	return fmt.Errorf("minio get %s/%s: %w", m.bucket, key, err)
}

func (m *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete %s/%s: %w", m.bucket, key, err)
	}
	m.logger.Debug(ctx, "blob deleted", "key", key)
	return nil
}
