// internal/ingest/ingest.go
// Package ingest drives corpus creation end to end: it discovers documents in
// a local directory, uploads each to the object store, registers a corpus
// with the managed platform, imports the uploads into it, and persists the
// corpus record the query side reads. One run, one corpus; re-running always
// creates a new corpus because the platform does not deduplicate display
// names.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/corpusconfig"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/storage"
)

// ObjectUploader is the slice of the storage uploader ingestion needs.
type ObjectUploader interface {
	EnsureBucket(ctx context.Context) error
	UploadFile(ctx context.Context, localPath string, opts ...storage.PutOption) (string, error)
}

// CorpusService is the slice of the platform client ingestion needs.
type CorpusService interface {
	CreateCorpus(ctx context.Context, projectID, displayName, embeddingModel string) (string, error)
	ImportFiles(ctx context.Context, corpusName string, sourceURIs []string, opts platform.ImportOptions) (int64, error)
}

// Options configures one ingestion run.
type Options struct {
	Directory   string
	ProjectID   string
	DisplayName string
	SourceURI   string
	OutputDir   string
}

// Result summarizes one ingestion run.
type Result struct {
	Uploaded      []string
	CorpusName    string
	ImportedCount int64
	ConfigPath    string
	Config        corpusconfig.CorpusConfig
}

// Run executes the ingestion flow. Any remote failure aborts the whole run;
// uploads that already happened are left in place.
func Run(ctx context.Context, cfg appconfig.Config, opts Options, uploader ObjectUploader, corpora CorpusService) (Result, error) {
	if strings.TrimSpace(opts.ProjectID) == "" {
		return Result{}, errdefs.Configuration("a project id is required")
	}
	if strings.TrimSpace(opts.DisplayName) == "" {
		return Result{}, errdefs.Configuration("a corpus display name is required")
	}
	if strings.TrimSpace(opts.Directory) == "" {
		return Result{}, errdefs.Configuration("a document directory is required")
	}

	start := time.Now()
	status := func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		msg := fmt.Sprintf("[%s] %s", elapsed, fmt.Sprintf(format, args...))
		log.Print(msg)
		fmt.Println(msg)
	}
	status("[INGEST] Document directory: %s", opts.Directory)
	status("[INGEST] Project: %s, corpus display name: %s", opts.ProjectID, opts.DisplayName)
	status("[INGEST] Embedding model: %s", cfg.EmbeddingModel())
	status("[INGEST] Chunk size: %d tokens, overlap: %d tokens", cfg.ChunkSize(), cfg.ChunkOverlap())

	files, err := discoverDocuments(opts.Directory)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		return Result{}, errdefs.Configuration("no documents found under %s", opts.Directory)
	}
	status("[INGEST] Discovered %d documents", len(files))

	if err := uploader.EnsureBucket(ctx); err != nil {
		return Result{}, err
	}

	var uploaded []string
	for _, path := range files {
		fileStart := time.Now()
		status("[INGEST] Uploading %s", filepath.Base(path))
		uri, err := uploader.UploadFile(ctx, path)
		if err != nil {
			return Result{}, err
		}
		uploaded = append(uploaded, uri)
		status("[INGEST] Uploaded %s in %s", filepath.Base(path), time.Since(fileStart).Truncate(time.Millisecond))
	}

	status("[INGEST] Creating corpus %q", opts.DisplayName)
	corpusName, err := corpora.CreateCorpus(ctx, opts.ProjectID, opts.DisplayName, cfg.EmbeddingModel())
	if err != nil {
		return Result{}, err
	}
	status("[INGEST] Corpus created: %s", corpusName)

	status("[INGEST] Importing %d uploaded documents", len(uploaded))
	imported, err := corpora.ImportFiles(ctx, corpusName, uploaded, platform.ImportOptions{
		ChunkSize:                     cfg.ChunkSize(),
		ChunkOverlap:                  cfg.ChunkOverlap(),
		MaxEmbeddingRequestsPerMinute: cfg.EmbeddingRequestsPerMinute(),
	})
	if err != nil {
		return Result{}, err
	}
	if imported > 0 {
		status("[INGEST] Platform imported %d files", imported)
	}

	record := corpusconfig.CorpusConfig{
		ProjectID:          opts.ProjectID,
		Location:           cfg.PlatformLocation(),
		CorpusResourceName: corpusName,
		DisplayName:        opts.DisplayName,
		SourceURI:          sourceURIFor(opts, uploaded),
	}
	configPath := corpusconfig.Path(opts.OutputDir, opts.ProjectID)
	if err := corpusconfig.Save(configPath, record); err != nil {
		return Result{}, err
	}
	status("[INGEST] Corpus config written: %s", configPath)
	status("[INGEST] Ingestion complete in %s", time.Since(start).Truncate(time.Millisecond))

	return Result{
		Uploaded:      uploaded,
		CorpusName:    corpusName,
		ImportedCount: imported,
		ConfigPath:    configPath,
		Config:        record,
	}, nil
}

// discoverDocuments lists the regular files directly under dir, sorted by
// name. Dot files and subdirectories are skipped; the upload folder is flat.
func discoverDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errdefs.Configuration("read document directory %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// sourceURIFor resolves the recorded source location: an explicit override
// wins, otherwise the parent of the first uploaded object.
func sourceURIFor(opts Options, uploaded []string) string {
	if uri := strings.TrimSpace(opts.SourceURI); uri != "" {
		return uri
	}
	if len(uploaded) == 0 {
		return ""
	}
	first := uploaded[0]
	if i := strings.LastIndex(first, "/"); i > 0 {
		return first[:i]
	}
	return first
}
