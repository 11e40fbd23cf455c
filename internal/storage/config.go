// internal/storage/config.go
package storage

import (
	"fmt"
	"strings"

	"github.com/mwiater/pythia/internal/appconfig"
)

// Config holds the object-store connection settings for corpus uploads.
type Config struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	UseSSL    bool   `json:"useSSL"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
}

// DefaultConfig returns a Config with local development defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "localhost:9000",
		UseSSL:   false,
		Bucket:   "contact-rag",
	}
}

// FromAppConfig maps the application configuration onto a storage Config.
func FromAppConfig(cfg appconfig.Config) *Config {
	return &Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	}
}

// Validate checks that the configuration can reach a bucket.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return fmt.Errorf("accessKey is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("secretKey is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}
