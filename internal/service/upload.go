package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/blob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errFileTooLarge = errors.New("image exceeds the maximum upload size")
	errNotAnImage   = errors.New("file is not a supported image")
)

// imageExtensions lists the accepted sniffed content types and the extension stored objects get.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageEditor is an external editing surface (crop, rotate, filter) for a selected image.
type ImageEditor interface {
	Edit(ctx context.Context, image model.Image) (model.Image, error)
}

type uploadJob struct {
	job      model.UploadJob
	data     []byte
	canceled bool
}

type uploadService struct {
	logger  *zap.Logger
	repo    *repository.Repository
	timeout time.Duration
	maxSize int64

	mu   sync.Mutex
	jobs map[string]*uploadJob
}

func newUploadService(logger *zap.Logger, repo *repository.Repository, timeout time.Duration, maxSize int64) *uploadService {
	return &uploadService{
		logger:  logger,
		repo:    repo,
		timeout: timeout,
		maxSize: maxSize,
		jobs:    make(map[string]*uploadJob),
	}
}

func (s *uploadService) Select(ctx context.Context, filename string, r io.Reader) (*model.UploadJob, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		s.logger.Sugar().Errorf("failed to read selected image(%s): %s", filename, err.Error())
		return nil, &UploadError{Code: UploadNetwork, Err: err}
	}
	if int64(len(data)) > s.maxSize {
		return nil, &UploadError{Code: UploadInvalidFormat, Err: errFileTooLarge}
	}

	contentType, err := sniffImage(data)
	if err != nil {
		return nil, err
	}

	job := &uploadJob{
		job: model.UploadJob{
			ID:          uuid.NewString(),
			Filename:    filepath.Base(filename),
			ContentType: contentType,
			Size:        int64(len(data)),
			CreatedAt:   time.Now().UTC(),
		},
		data: data,
	}

	s.mu.Lock()
	s.jobs[job.job.ID] = job
	s.mu.Unlock()

	result := job.job
	return &result, nil
}

func sniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &UploadError{Code: UploadInvalidFormat, Err: errNotAnImage}
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return "", &UploadError{Code: UploadInvalidFormat, Err: fmt.Errorf("%w: %s", errNotAnImage, contentType)}
	}

	return contentType, nil
}

// Edit hands the selected image to editor and keeps the result for Commit.
func (s *uploadService) Edit(ctx context.Context, jobID string, editor ImageEditor) (*model.UploadJob, error) {
	job, err := s.get(jobID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	image := model.Image{
		Filename:    job.job.Filename,
		ContentType: job.job.ContentType,
		Data:        bytes.Clone(job.data),
	}
	s.mu.Unlock()

	edited, err := editor.Edit(ctx, image)
	if err != nil {
		s.logger.Sugar().Errorf("failed to edit image of upload(%s): %s", jobID, err.Error())
		return nil, err
	}
	if int64(len(edited.Data)) > s.maxSize {
		return nil, &UploadError{Code: UploadInvalidFormat, Err: errFileTooLarge}
	}

	contentType, err := sniffImage(edited.Data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.canceled {
		return nil, ErrUploadCanceled
	}

	job.data = edited.Data
	job.job.ContentType = contentType
	job.job.Size = int64(len(edited.Data))
	job.job.Edited = true
	if edited.Filename != "" {
		job.job.Filename = filepath.Base(edited.Filename)
	}

	result := job.job
	return &result, nil
}

// Commit stores the image under a collision-resistant name and returns its public URL.
func (s *uploadService) Commit(ctx context.Context, jobID string) (string, error) {
	job, err := s.get(jobID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	contentType := job.job.ContentType
	data := job.data
	s.mu.Unlock()

	name := objectName(contentType, time.Now())

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url, err := s.repo.Blob.Upload(uploadCtx, name, contentType, data)
	if err != nil {
		s.logger.Sugar().Errorf("failed to upload image of upload(%s) as %s: %s", jobID, name, err.Error())
		return "", uploadFailure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.canceled {
		return "", ErrUploadCanceled
	}
	delete(s.jobs, jobID)

	return url, nil
}

func objectName(contentType string, now time.Time) string {
	return fmt.Sprintf("images/%d-%s%s", now.UnixNano(), uuid.NewString(), imageExtensions[contentType])
}

func uploadFailure(err error) error {
	switch {
	case errors.Is(err, blob.ErrQuotaExceeded):
		return &UploadError{Code: UploadStorageQuota, Err: err}
	case errors.Is(err, blob.ErrInvalidFormat):
		return &UploadError{Code: UploadInvalidFormat, Err: err}
	}
	return &UploadError{Code: UploadNetwork, Err: remoteFailure(err)}
}

// Cancel releases the job. A commit already in flight settles, but its URL is discarded.
func (s *uploadService) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrUploadNotFound
	}

	job.canceled = true
	job.data = nil
	delete(s.jobs, jobID)

	return nil
}

func (s *uploadService) get(jobID string) (*uploadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[strings.TrimSpace(jobID)]
	if !ok {
		return nil, ErrUploadNotFound
	}

	return job, nil
}
