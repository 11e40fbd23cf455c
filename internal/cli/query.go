// internal/cli/query.go
package pythia

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/corpusconfig"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/query"
	"github.com/spf13/cobra"
)

var successfulResult = color.New(color.FgGreen).SprintFunc()
var failedResult = color.New(color.FgRed).SprintFunc()

var queryCorpusConfigPath string

// queryCmd asks the managed corpus a question and prints the grounded answer.
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask the managed corpus a question",
	Long:  `The 'query' command retrieves matching passages from the managed corpus and generates an answer grounded in them.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("a question is required")
		}

		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}

		record, err := loadCorpusRecord(cfg, queryCorpusConfigPath)
		if err != nil {
			return err
		}

		client, err := platform.New(*cfg)
		if err != nil {
			return err
		}
		runner, err := query.NewRunner(*cfg, record, client)
		if err != nil {
			return err
		}

		status := func(format string, args ...any) {
			msg := fmt.Sprintf(format, args...)
			log.Print(msg)
			fmt.Println(msg)
		}

		status("[QUERY] corpus: %s", record.CorpusResourceName)
		status("[QUERY] model: %s", cfg.GenerationModel())
		status("[QUERY] topK: %d, distance threshold: %.2f", cfg.TopK(), cfg.VectorDistanceThreshold())
		status("[QUERY] question: %s", question)

		result, err := runner.Answer(context.Background(), question)
		if err != nil {
			return err
		}

		status("[QUERY] retrieval_ms: %d", result.RetrievalMs)
		if len(result.Passages) == 0 {
			fmt.Println(failedResult("[QUERY] no passages retrieved; the answer is ungrounded"))
		}
		for i, p := range result.Passages {
			status("[QUERY] passage %d source=%s distance=%.4f", i+1, p.SourceURI, p.Distance)
		}
		if DebugEnabled() {
			status("[QUERY] final prompt:\n%s", result.FinalPrompt)
		}

		fmt.Println(successfulResult(result.Answer))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryCorpusConfigPath, "corpus-config", "", "path to the corpus config file written by 'corpus create'")
}

// loadCorpusRecord resolves the corpus config path, the flag first and the
// configured serve entry second, and loads the record it points at.
func loadCorpusRecord(cfg *appconfig.Config, flagPath string) (corpusconfig.CorpusConfig, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(cfg.Serve.CorpusConfig)
	}
	if path == "" {
		return corpusconfig.CorpusConfig{}, errdefs.Configuration("no corpus config path given (use --corpus-config or set serve.corpusConfig)")
	}
	return corpusconfig.Load(path)
}
