package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"
)

// CDNClient uploads through an HTTP CDN endpoint that accepts multipart "file" + "path" fields and answers with the URL.
type CDNClient struct {
	logger     *zap.Logger
	origin     string
	httpClient *http.Client
}

func NewCDNClient(logger *zap.Logger, origin string, httpClient *http.Client) *CDNClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &CDNClient{
		logger:     logger,
		origin:     strings.TrimRight(origin, "/"),
		httpClient: httpClient,
	}
}

func (c *CDNClient) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	endpoint := "/upload"
	url := c.origin + endpoint

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	fileWriter, err := writer.CreateFormFile("file", path.Base(name))
	if err != nil {
		c.logger.Sugar().Errorf("failed to create file part for CDN request: %s", err.Error())
		return "", err
	}

	if _, err := io.Copy(fileWriter, bytes.NewReader(data)); err != nil {
		c.logger.Sugar().Errorf("failed to copy file content for CDN request: %s", err.Error())
		return "", err
	}

	if err := writer.WriteField("path", path.Dir(name)); err != nil {
		c.logger.Sugar().Errorf("failed to write path field for CDN request: %s", err.Error())
		return "", err
	}

	if err := writer.Close(); err != nil {
		c.logger.Sugar().Errorf("failed to close writer for CDN request: %s", err.Error())
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &requestBody)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create CDN request: %s", err.Error())
		return "", err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("type", "IMAGE")
	req.Header.Add("X-Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to read response body from CDN: %s", err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var bodyJSON map[string]interface{}
		details := ""
		if err := json.Unmarshal(body, &bodyJSON); err != nil {
			c.logger.Sugar().Errorf("failed to decode error response from CDN: %s", err.Error())
		} else {
			details, _ = bodyJSON["details"].(string)
			c.logger.Sugar().Errorf("ERROR from CDN endpoint(%s), code(%d), details: %s", endpoint, resp.StatusCode, details)
		}

		switch resp.StatusCode {
		case http.StatusRequestEntityTooLarge, http.StatusInsufficientStorage:
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, details)
		case http.StatusUnsupportedMediaType, http.StatusBadRequest:
			return "", fmt.Errorf("%w: %s", ErrInvalidFormat, details)
		}
		return "", fmt.Errorf("CDN upload failed with status %d", resp.StatusCode)
	}

	return strings.TrimSpace(string(body)), nil
}
