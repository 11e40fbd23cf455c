// internal/cli/corpus_create.go
package pythia

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/pythia/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	corpusCreateDir         string
	corpusCreateProject     string
	corpusCreateDisplayName string
	corpusCreateURI         string
	corpusCreateOutputDir   string
	corpusCreateCredentials string
)

// corpusCreateCmd implements 'corpus create', which uploads a local document
// folder to the object store, builds a managed corpus from it, and writes the
// corpus config file the query side reads.
var corpusCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Upload a document folder and build a managed corpus",
	Long:  `The 'create' command uploads every document in a local folder to the object store, creates a managed corpus, imports the uploaded documents into it, and records the result in a corpus config file.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(corpusCreateProject) == "" {
			return fmt.Errorf("a project id is required (--project)")
		}
		if strings.TrimSpace(corpusCreateDisplayName) == "" {
			return fmt.Errorf("a corpus display name is required (--display-name)")
		}

		opts := ingest.Options{
			Directory:   corpusCreateDir,
			ProjectID:   corpusCreateProject,
			DisplayName: corpusCreateDisplayName,
			SourceURI:   corpusCreateURI,
			OutputDir:   corpusCreateOutputDir,
		}
		return runCorpusCreate(context.Background(), GetConfig(), opts, corpusCreateCredentials)
	},
}

func init() {
	corpusCmd.AddCommand(corpusCreateCmd)

	corpusCreateCmd.Flags().StringVar(&corpusCreateDir, "dir", "./upload", "local folder whose documents feed the corpus")
	corpusCreateCmd.Flags().StringVar(&corpusCreateProject, "project", "", "platform project id that owns the corpus")
	corpusCreateCmd.Flags().StringVar(&corpusCreateDisplayName, "display-name", "", "display name for the new corpus")
	corpusCreateCmd.Flags().StringVar(&corpusCreateURI, "uri", "", "record this source URI instead of the derived upload prefix")
	corpusCreateCmd.Flags().StringVar(&corpusCreateOutputDir, "output-dir", ".", "directory the corpus config file is written to")
	corpusCreateCmd.Flags().StringVar(&corpusCreateCredentials, "credentials", "", "platform credentials file (overrides the configured path)")
}
