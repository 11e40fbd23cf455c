// internal/corpusconfig/corpusconfig_test.go
package corpusconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mwiater/pythia/internal/errdefs"
)

// TestSaveLoadRoundTrip verifies the round-trip law: for any valid record,
// Save followed by Load reproduces the identical record.
func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := CorpusConfig{
		ProjectID:          "demo-proj",
		Location:           "us-central1",
		CorpusResourceName: "projects/demo-proj/locations/us-central1/ragCorpora/4611686018427387904",
		DisplayName:        "demo-corpus",
		SourceURI:          "s3://contact-rag/demo-corpus",
	}

	path := Path(dir, want.ProjectID)
	if filepath.Base(path) != "demo-proj_config_corpus.json" {
		t.Fatalf("unexpected record filename %q", filepath.Base(path))
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

// TestSaveRejectsEmptyResourceName verifies that a record without a confirmed
// corpus resource name cannot be persisted.
func TestSaveRejectsEmptyResourceName(t *testing.T) {
	dir := t.TempDir()
	cfg := CorpusConfig{ProjectID: "demo-proj", Location: "us-central1"}

	err := Save(Path(dir, cfg.ProjectID), cfg)
	if err == nil {
		t.Fatal("Save should refuse a record without a corpus resource name")
	}
	if !errdefs.IsConfiguration(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

// TestLoadErrors verifies that missing files, malformed JSON, and records
// failing schema validation are all reported as configuration errors.
func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "absent_config_corpus.json")); err == nil {
		t.Fatal("Load of a missing file should fail")
	} else if !errdefs.IsConfiguration(err) {
		t.Fatalf("missing file should be a configuration error, got %v", err)
	}

	malformed := filepath.Join(dir, "malformed_config_corpus.json")
	if err := os.WriteFile(malformed, []byte(`{"project_id": "x",`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(malformed); err == nil {
		t.Fatal("Load of malformed JSON should fail")
	} else if !errdefs.IsConfiguration(err) {
		t.Fatalf("malformed JSON should be a configuration error, got %v", err)
	}

	truncated := filepath.Join(dir, "truncated_config_corpus.json")
	record := `{"project_id": "demo-proj", "location": "us-central1", "display_name": "demo-corpus"}`
	if err := os.WriteFile(truncated, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(truncated); err == nil {
		t.Fatal("Load of a record without a corpus resource name should fail validation")
	} else if !errdefs.IsConfiguration(err) {
		t.Fatalf("schema failure should be a configuration error, got %v", err)
	}
}
