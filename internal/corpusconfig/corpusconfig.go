// internal/corpusconfig/corpusconfig.go
// Package corpusconfig persists the record that ties a project to its managed
// retrieval corpus. Ingestion writes the record once, after the platform has
// confirmed corpus creation; the query driver, the web form, and the helpdesk
// read it. The record never changes after it is written.
package corpusconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/util"
	"github.com/xeipuuv/gojsonschema"
)

// fileSuffix is appended to the project id to form the record filename.
const fileSuffix = "_config_corpus.json"

// CorpusConfig identifies one managed corpus. The resource name is only
// valid once the remote service has confirmed corpus creation.
type CorpusConfig struct {
	ProjectID          string `json:"project_id"`
	Location           string `json:"location"`
	CorpusResourceName string `json:"corpus_resource_name"`
	DisplayName        string `json:"display_name"`
	SourceURI          string `json:"source_uri"`
}

// Path returns the record path for a project inside dir.
func Path(dir, projectID string) string {
	return filepath.Join(dir, projectID+fileSuffix)
}

// recordSchema describes the persisted record. Loads reject records missing
// the identifying keys so a truncated or hand-edited file fails here instead
// of as a confusing remote error later.
func recordSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_id":           map[string]any{"type": "string", "minLength": 1},
			"location":             map[string]any{"type": "string", "minLength": 1},
			"corpus_resource_name": map[string]any{"type": "string", "minLength": 1},
			"display_name":         map[string]any{"type": "string"},
			"source_uri":           map[string]any{"type": "string"},
		},
		"required": []string{"project_id", "location", "corpus_resource_name"},
	}
}

// Save writes the record as indented JSON. A record without a corpus resource
// name is refused: nothing downstream can use it.
func Save(path string, cfg CorpusConfig) error {
	if strings.TrimSpace(cfg.CorpusResourceName) == "" {
		return errdefs.Configuration("corpus config for project %q has no corpus resource name", cfg.ProjectID)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errdefs.Configuration("marshal corpus config: %w", err)
	}
	data = append(data, '\n')
	if err := util.WriteFile(path, data); err != nil {
		return errdefs.Configuration("write corpus config %q: %w", path, err)
	}
	return nil
}

// Load reads and validates a record. Missing files, malformed JSON, and
// records that fail the schema all come back as configuration errors.
func Load(path string) (CorpusConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return CorpusConfig{}, err
	}

	schemaLoader := gojsonschema.NewGoLoader(recordSchema())
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return CorpusConfig{}, errdefs.Configuration("corpus config %q is not valid JSON: %w", path, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return CorpusConfig{}, errdefs.Configuration("corpus config %q failed validation: %s", path, strings.Join(errs, ", "))
	}

	var cfg CorpusConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CorpusConfig{}, errdefs.Configuration("decode corpus config %q: %w", path, err)
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Configuration("read corpus config %q: %w", path, err)
	}
	return data, nil
}
