// internal/storage/uploader.go
// Package storage uploads corpus documents to an S3-compatible object store.
// The managed platform imports them from there; nothing in this package reads
// objects back.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/sirupsen/logrus"
)

// Uploader provides corpus document uploads to the object store.
type Uploader struct {
	config      *Config
	minioClient *minio.Client
	logger      *logrus.Logger
	mu          sync.RWMutex
	connected   bool
}

// NewUploader creates an uploader from the given configuration.
func NewUploader(config *Config, logger *logrus.Logger) (*Uploader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errdefs.Configuration("invalid storage config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Uploader{
		config:    config,
		logger:    logger,
		connected: false,
	}, nil
}

// Connect establishes the connection to the object store and verifies it by
// probing the configured bucket.
func (u *Uploader) Connect(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	minioClient, err := minio.New(u.config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(u.config.AccessKey, u.config.SecretKey, ""),
		Secure: u.config.UseSSL,
	})
	if err != nil {
		return errdefs.RemoteService("create object store client: %w", err)
	}

	u.minioClient = minioClient

	if _, err := minioClient.BucketExists(ctx, u.config.Bucket); err != nil {
		return errdefs.RemoteService("connect to object store: %w", err)
	}

	u.connected = true
	u.logger.WithField("endpoint", u.config.Endpoint).Info("Connected to object store")
	return nil
}

// Close drops the connection state.
func (u *Uploader) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.connected = false
	u.minioClient = nil
	return nil
}

// IsConnected returns whether Connect has succeeded.
func (u *Uploader) IsConnected() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.connected
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if !u.connected || u.minioClient == nil {
		return errdefs.RemoteService("not connected to object store")
	}

	exists, err := u.minioClient.BucketExists(ctx, u.config.Bucket)
	if err != nil {
		return errdefs.RemoteService("check bucket %q: %w", u.config.Bucket, err)
	}
	if exists {
		u.logger.WithField("bucket", u.config.Bucket).Debug("Bucket already exists")
		return nil
	}

	if err := u.minioClient.MakeBucket(ctx, u.config.Bucket, minio.MakeBucketOptions{}); err != nil {
		return errdefs.RemoteService("create bucket %q: %w", u.config.Bucket, err)
	}

	u.logger.WithField("bucket", u.config.Bucket).Info("Bucket created")
	return nil
}

// PutOption represents an option for upload operations.
type PutOption func(*minio.PutObjectOptions)

// WithContentType sets the content type of the uploaded object.
func WithContentType(contentType string) PutOption {
	return func(opts *minio.PutObjectOptions) {
		opts.ContentType = contentType
	}
}

// WithMetadata sets custom metadata on the uploaded object.
func WithMetadata(metadata map[string]string) PutOption {
	return func(opts *minio.PutObjectOptions) {
		opts.UserMetadata = metadata
	}
}

// UploadFile uploads one local file under the configured prefix and returns
// the object URI the platform will import from.
func (u *Uploader) UploadFile(ctx context.Context, localPath string, opts ...PutOption) (string, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if !u.connected || u.minioClient == nil {
		return "", errdefs.RemoteService("not connected to object store")
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", errdefs.Configuration("open %q: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", errdefs.Configuration("stat %q: %w", localPath, err)
	}

	objectName := ObjectName(u.config.Prefix, localPath)

	putOpts := minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	}
	for _, opt := range opts {
		opt(&putOpts)
	}

	if _, err := u.minioClient.PutObject(ctx, u.config.Bucket, objectName, file, info.Size(), putOpts); err != nil {
		return "", errdefs.RemoteService("upload %q: %w", localPath, err)
	}

	uri := ObjectURI(u.config.Bucket, objectName)
	u.logger.WithFields(logrus.Fields{
		"bucket": u.config.Bucket,
		"object": objectName,
		"size":   info.Size(),
	}).Debug("Uploaded corpus document")
	return uri, nil
}

// ObjectName joins the configured prefix with the file's base name.
func ObjectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

// ObjectURI renders the s3 URI for an uploaded object.
func ObjectURI(bucket, objectName string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, objectName)
}

// contentTypeFor guesses a content type from the file extension.
func contentTypeFor(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
