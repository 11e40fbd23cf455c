// internal/cli/serve_entry_test.go
package pythia

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/corpusconfig"
	"github.com/mwiater/pythia/internal/errdefs"
)

func writeTestRecord(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo-proj_config_corpus.json")
	record := corpusconfig.CorpusConfig{
		ProjectID:          "demo-proj",
		Location:           "us-central1",
		CorpusResourceName: "projects/demo-proj/locations/us-central1/ragCorpora/42",
		DisplayName:        "demo-corpus",
		SourceURI:          "s3://contact-rag/corpus",
	}
	if err := corpusconfig.Save(path, record); err != nil {
		t.Fatalf("save record: %v", err)
	}
	return path
}

// buildServer with neither a database nor a trace endpoint configured still
// yields a working server; queueing and tracing simply stay off.
func TestBuildServerWithoutQueue(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Platform.Endpoint = "http://localhost:1"

	server, cleanup, err := buildServer(context.Background(), cfg, writeTestRecord(t))
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer cleanup()
	if server == nil {
		t.Fatal("expected a server")
	}
}

func TestBuildServerRequiresCorpusConfig(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Platform.Endpoint = "http://localhost:1"

	if _, _, err := buildServer(context.Background(), cfg, ""); !errdefs.IsConfiguration(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestBuildServerNilConfig(t *testing.T) {
	if _, _, err := buildServer(context.Background(), nil, ""); err == nil {
		t.Fatal("expected an error for a nil config")
	}
}
