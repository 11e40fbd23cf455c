// internal/appconfig/appconfig_test.go
package appconfig

import (
	"os"
	"testing"
	"time"
)

// TestLoad tests the Load function to ensure it correctly handles various
// scenarios, including valid and invalid configurations. It verifies that a
// valid configuration file is loaded without error, while files with invalid
// JSON, no platform endpoint, or that are nonexistent result in an
// appropriate error. This test uses temporary files to simulate different
// configuration scenarios and asserts that the function behaves as expected
// in each case.
func TestLoad(t *testing.T) {
	validConfig := `{
        "platform": {
            "endpoint": "https://rag.example.test",
            "location": "us-central1"
        },
        "storage": {
            "endpoint": "localhost:9000",
            "bucket": "contact-rag"
        }
    }`
	tmpfile, err := os.CreateTemp("", "pythia.config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(validConfig)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.Platform.Endpoint != "https://rag.example.test" {
		t.Fatalf("expected platform endpoint to survive loading, got %q", cfg.Platform.Endpoint)
	}

	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}
	if cfg.TopK() != 3 {
		t.Fatalf("expected default top k of 3, got %d", cfg.TopK())
	}
	if cfg.VectorDistanceThreshold() != 0.5 {
		t.Fatalf("expected default distance threshold of 0.5, got %v", cfg.VectorDistanceThreshold())
	}
	if cfg.ChunkSize() != 512 {
		t.Fatalf("expected default chunk size of 512, got %d", cfg.ChunkSize())
	}
	if cfg.ChunkOverlap() != 100 {
		t.Fatalf("expected default chunk overlap of 100, got %d", cfg.ChunkOverlap())
	}
	if cfg.EmbeddingRequestsPerMinute() != 900 {
		t.Fatalf("expected default embedding rate of 900, got %d", cfg.EmbeddingRequestsPerMinute())
	}
	if cfg.GenerationModel() != "gemini-1.5-pro-001" {
		t.Fatalf("expected default generation model, got %q", cfg.GenerationModel())
	}
	if cfg.EmbeddingModel() != "text-embedding-004" {
		t.Fatalf("expected default embedding model, got %q", cfg.EmbeddingModel())
	}
	if cfg.ServeAddress() != ":8084" {
		t.Fatalf("expected default serve address, got %q", cfg.ServeAddress())
	}
	if cfg.LogFilePath() != "pythia.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}
	if cfg.DatabaseEnabled() {
		t.Fatal("database should be disabled when no URL is configured")
	}
	if cfg.ObservabilityEnabled() {
		t.Fatal("observability should be disabled when no endpoint is configured")
	}
	if cfg.MailerEnabled() {
		t.Fatal("mailer should be disabled when no endpoint is configured")
	}

	invalidJSON := `{ "platform": {`
	tmpfile2, err := os.CreateTemp("", "pythia.config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile2.Name())
	if _, err := tmpfile2.Write([]byte(invalidJSON)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile2.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile2.Name()); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	noEndpoint := `{ "platform": {} }`
	tmpfile3, err := os.CreateTemp("", "pythia.config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile3.Name())
	if _, err := tmpfile3.Write([]byte(noEndpoint)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile3.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile3.Name()); err == nil {
		t.Fatal("Load() without a platform endpoint should have failed")
	}

	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

// TestChunkOverlapSentinel verifies the negative/zero/positive handling of the
// chunk overlap setting: negative disables overlap, zero means unset.
func TestChunkOverlapSentinel(t *testing.T) {
	var cfg Config

	cfg.Platform.ChunkOverlap = -1
	if got := cfg.ChunkOverlap(); got != 0 {
		t.Fatalf("negative overlap should disable overlap, got %d", got)
	}

	cfg.Platform.ChunkOverlap = 0
	if got := cfg.ChunkOverlap(); got != 100 {
		t.Fatalf("zero overlap should fall back to the default, got %d", got)
	}

	cfg.Platform.ChunkOverlap = 64
	if got := cfg.ChunkOverlap(); got != 64 {
		t.Fatalf("explicit overlap should be kept, got %d", got)
	}
}

// TestApplyEnvOverrides verifies that secrets in the environment replace file
// values and that unset variables leave the config untouched.
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PYTHIA_STORAGE_ACCESS_KEY", "env-access")
	t.Setenv("PYTHIA_DATABASE_URL", "postgres://env-host/contact")
	t.Setenv("PYTHIA_MAILER_API_KEY", "")

	cfg := Config{}
	cfg.Storage.AccessKey = "file-access"
	cfg.Storage.SecretKey = "file-secret"
	cfg.Mailer.APIKey = "file-mailer"
	cfg.ApplyEnvOverrides()

	if cfg.Storage.AccessKey != "env-access" {
		t.Fatalf("expected env access key to win, got %q", cfg.Storage.AccessKey)
	}
	if cfg.Storage.SecretKey != "file-secret" {
		t.Fatalf("unset env var should not clobber file value, got %q", cfg.Storage.SecretKey)
	}
	if cfg.Database.URL != "postgres://env-host/contact" {
		t.Fatalf("expected env database URL, got %q", cfg.Database.URL)
	}
	if cfg.Mailer.APIKey != "file-mailer" {
		t.Fatalf("empty env var should not clobber file value, got %q", cfg.Mailer.APIKey)
	}
	if !cfg.DatabaseEnabled() {
		t.Fatal("database should be enabled once a URL is present")
	}
}
