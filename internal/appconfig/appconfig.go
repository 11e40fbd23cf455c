// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/pythia.config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "pythia.config.json"
	// defaultRequestTimeout is the default timeout for calls to the managed platform.
	defaultRequestTimeout = 600 * time.Second
	// defaultServeAddress is the fallback listen address for the web form server.
	defaultServeAddress = ":8084"
	// defaultGenerationModel is the hosted model used when the config omits one.
	defaultGenerationModel = "gemini-1.5-pro-001"
	// defaultEmbeddingModel is the corpus embedding model used when the config omits one.
	defaultEmbeddingModel = "text-embedding-004"
	// defaultLocation is the platform region used when the config omits one.
	defaultLocation = "us-central1"
	// defaultTopK is how many passages a retrieval call asks for.
	defaultTopK = 3
	// defaultDistanceThreshold filters retrieved passages by vector distance.
	defaultDistanceThreshold = 0.5
	// defaultChunkSize is the token count per imported document chunk.
	defaultChunkSize = 512
	// defaultChunkOverlap is the token overlap between consecutive chunks.
	defaultChunkOverlap = 100
	// defaultEmbeddingRequestsPerMinute caps the import embedding rate.
	defaultEmbeddingRequestsPerMinute = 900
)

// Config represents the top-level application configuration.
type Config struct {
	Platform      PlatformConfig      `json:"platform"`
	Storage       StorageConfig       `json:"storage"`
	Database      DatabaseConfig      `json:"database"`
	Observability ObservabilityConfig `json:"observability"`
	Mailer        MailerConfig        `json:"mailer"`
	Serve         ServeConfig         `json:"serve"`
	Debug         bool                `json:"debug"`
	LogFile       string              `json:"logFile,omitempty"`
	ConfigPath    string              `json:"-"`
}

// PlatformConfig describes the managed RAG platform the drivers talk to.
type PlatformConfig struct {
	Endpoint                   string  `json:"endpoint"`
	CredentialsFile            string  `json:"credentialsFile,omitempty"`
	Model                      string  `json:"model,omitempty"`
	EmbeddingModel             string  `json:"embeddingModel,omitempty"`
	Location                   string  `json:"location,omitempty"`
	TimeoutSeconds             int     `json:"timeout,omitempty"`
	TopK                       int     `json:"topK,omitempty"`
	DistanceThreshold          float64 `json:"distanceThreshold,omitempty"`
	ChunkSize                  int     `json:"chunkSize,omitempty"`
	ChunkOverlap               int     `json:"chunkOverlap,omitempty"`
	EmbeddingRequestsPerMinute int     `json:"embeddingRequestsPerMinute,omitempty"`
}

// StorageConfig describes the S3-compatible object store uploads land in.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	UseSSL    bool   `json:"useSSL"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix,omitempty"`
}

// DatabaseConfig describes the optional Postgres contact queue.
type DatabaseConfig struct {
	URL string `json:"url,omitempty"`
}

// ObservabilityConfig describes the optional LLM trace service.
type ObservabilityConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	Project  string `json:"project,omitempty"`
}

// MailerConfig describes the optional mail delivery API.
type MailerConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	From     string `json:"from,omitempty"`
}

// ServeConfig describes the web form server.
type ServeConfig struct {
	Address      string `json:"address,omitempty"`
	CorpusConfig string `json:"corpusConfig,omitempty"`
}

// RequestTimeout returns the timeout duration for platform calls, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.Platform.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.Platform.TimeoutSeconds) * time.Second
}

// GenerationModel returns the hosted model used for answer generation.
func (c Config) GenerationModel() string {
	if m := strings.TrimSpace(c.Platform.Model); m != "" {
		return m
	}
	return defaultGenerationModel
}

// EmbeddingModel returns the embedding model used when building a corpus.
func (c Config) EmbeddingModel() string {
	if m := strings.TrimSpace(c.Platform.EmbeddingModel); m != "" {
		return m
	}
	return defaultEmbeddingModel
}

// PlatformLocation returns the configured platform region.
func (c Config) PlatformLocation() string {
	if l := strings.TrimSpace(c.Platform.Location); l != "" {
		return l
	}
	return defaultLocation
}

// TopK returns how many passages each retrieval call requests.
func (c Config) TopK() int {
	if c.Platform.TopK <= 0 {
		return defaultTopK
	}
	return c.Platform.TopK
}

// VectorDistanceThreshold returns the retrieval distance cutoff.
func (c Config) VectorDistanceThreshold() float64 {
	if c.Platform.DistanceThreshold <= 0 {
		return defaultDistanceThreshold
	}
	return c.Platform.DistanceThreshold
}

// ChunkSize returns the token count per imported chunk.
func (c Config) ChunkSize() int {
	if c.Platform.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.Platform.ChunkSize
}

// ChunkOverlap returns the token overlap between imported chunks. A negative
// value means no overlap; zero means unset.
func (c Config) ChunkOverlap() int {
	if c.Platform.ChunkOverlap < 0 {
		return 0
	}
	if c.Platform.ChunkOverlap == 0 {
		return defaultChunkOverlap
	}
	return c.Platform.ChunkOverlap
}

// EmbeddingRequestsPerMinute returns the import embedding rate cap.
func (c Config) EmbeddingRequestsPerMinute() int {
	if c.Platform.EmbeddingRequestsPerMinute <= 0 {
		return defaultEmbeddingRequestsPerMinute
	}
	return c.Platform.EmbeddingRequestsPerMinute
}

// ServeAddress returns the listen address for the web form server.
func (c Config) ServeAddress() string {
	if a := strings.TrimSpace(c.Serve.Address); a != "" {
		return a
	}
	return defaultServeAddress
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "pythia.log"
}

// DatabaseEnabled reports whether contact-queue persistence is configured.
func (c Config) DatabaseEnabled() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

// ObservabilityEnabled reports whether trace recording is configured.
func (c Config) ObservabilityEnabled() bool {
	return strings.TrimSpace(c.Observability.Endpoint) != ""
}

// MailerEnabled reports whether closing-notice delivery is configured.
func (c Config) MailerEnabled() bool {
	return strings.TrimSpace(c.Mailer.Endpoint) != ""
}

// ApplyEnvOverrides copies secret material from the environment over the file
// values. The file can stay free of credentials and a .env supplies them.
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		key  string
		dest *string
	}{
		{"PYTHIA_STORAGE_ACCESS_KEY", &c.Storage.AccessKey},
		{"PYTHIA_STORAGE_SECRET_KEY", &c.Storage.SecretKey},
		{"PYTHIA_DATABASE_URL", &c.Database.URL},
		{"PYTHIA_OBSERVABILITY_API_KEY", &c.Observability.APIKey},
		{"PYTHIA_MAILER_API_KEY", &c.Mailer.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dest = v
		}
	}
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if strings.TrimSpace(config.Platform.Endpoint) == "" {
			return Config{}, errors.New("config must define a platform endpoint")
		}
		config.ApplyEnvOverrides()
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				if strings.TrimSpace(config.Platform.Endpoint) == "" {
					return Config{}, errors.New("config must define a platform endpoint")
				}
				config.ApplyEnvOverrides()
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q): %w", DefaultConfigPath, legacyConfigPath, os.ErrNotExist)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q: %w", path, os.ErrNotExist)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}
