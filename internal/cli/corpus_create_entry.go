// internal/cli/corpus_create_entry.go
package pythia

import (
	"context"
	"fmt"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/ingest"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/storage"
)

// runCorpusCreate wires the object store uploader and the platform client into
// the ingestion flow. A credentials file given on the command line wins over
// the configured one.
func runCorpusCreate(ctx context.Context, cfg *appconfig.Config, opts ingest.Options, credentialsFile string) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if credentialsFile != "" {
		cfg.Platform.CredentialsFile = credentialsFile
	}

	client, err := platform.New(*cfg)
	if err != nil {
		return err
	}

	uploader, err := storage.NewUploader(storage.FromAppConfig(*cfg), newComponentLogger(cfg))
	if err != nil {
		return err
	}
	if err := uploader.Connect(ctx); err != nil {
		return err
	}
	defer uploader.Close()

	result, err := ingest.Run(ctx, *cfg, opts, uploader, client)
	if err != nil {
		return err
	}

	fmt.Println(successfulResult(fmt.Sprintf("Corpus %s ready: %d documents imported, config written to %s", result.CorpusName, result.ImportedCount, result.ConfigPath)))
	return nil
}
