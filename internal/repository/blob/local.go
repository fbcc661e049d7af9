package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// LocalStorage writes objects under basePath; the HTTP bridge serves them at baseURL.
type LocalStorage struct {
	logger   *zap.Logger
	basePath string
	baseURL  string
}

func NewLocalStorage(logger *zap.Logger, basePath string, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		logger:   logger,
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))
	if !strings.HasPrefix(fullPath, filepath.Clean(s.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: object name escapes storage root", ErrInvalidFormat)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", mapLocalError(err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", mapLocalError(err)
	}

	s.logger.Debug("stored object", zap.String("fullPath", fullPath), zap.String("contentType", contentType))
	return s.baseURL + "/" + name, nil
}

func mapLocalError(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, err.Error())
	}
	return err
}
