package config

import (
	"net/http"
	"time"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type IdentityConfig struct {
	Endpoint string
	APIKey   string
	// TokenSecret verifies ID tokens locally when set; otherwise claims are only decoded.
	TokenSecret string
}

type StorageConfig struct {
	Driver string // s3, gcs, local, cdn

	S3Region string
	S3Bucket string

	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string

	LocalPath    string
	LocalBaseURL string

	CDNOrigin string
}

type SyncConfig struct {
	Timeout       time.Duration
	FeedLimit     int
	FeedCacheTTL  time.Duration
	MaxUploadSize int64
}
