// Package blobstore keeps large file content outside the document store.
// Objects are immutable byte payloads addressed by a path-like key; a missing
// key is reported as common.ErrorNotFound.
package blobstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
)

// Store is an overflow or archive blob store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Open returns the store selected by cfg.BlobDriver for bucket.
func Open(ctx context.Context, cfg *config.Config, bucket string, logger logging.Logger) (Store, error) {
	logger = logger.With("module", "blobstore", "bucket", bucket)

	switch cfg.BlobDriver {
	case config.BlobS3:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return NewS3Store(client, bucket, logger), nil
	case config.BlobMinIO:
		client, err := NewMinIOClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		s := NewMinIOStore(client, bucket, logger)
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.BlobMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
