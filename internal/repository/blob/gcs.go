package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	projectID  string
	bucketName string
}

func NewGCSClient(ctx context.Context, projectID, bucketName, credentialsFile string) (*GCSClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:     client,
		projectID:  projectID,
		bucketName: bucketName,
	}, nil
}

func (c *GCSClient) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	obj := c.client.Bucket(c.bucketName).Object(name)

	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", mapGCSError(err)
	}

	if err := writer.Close(); err != nil {
		return "", mapGCSError(err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, name), nil
}

func mapGCSError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	if gerr.Code == http.StatusTooManyRequests || gerr.Code == http.StatusInsufficientStorage {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, gerr.Message)
	}
	for _, item := range gerr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "storageQuotaExceeded" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, item.Message)
		}
	}
	if gerr.Code == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, gerr.Message)
	}

	return err
}
