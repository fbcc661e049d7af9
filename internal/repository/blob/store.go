package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/PhotoSocial/feed-client/internal/config"
	"go.uber.org/zap"
)

var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidFormat = errors.New("object rejected by storage: invalid format")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store uploads a named binary object and returns its public URL.
type Store interface {
	Upload(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

func New(ctx context.Context, logger *zap.Logger, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	case "local", "":
		return NewLocalStorage(logger, cfg.LocalPath, cfg.LocalBaseURL)
	case "cdn":
		return NewCDNClient(logger, cfg.CDNOrigin, nil), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}
