// internal/cli/serve.go
package pythia

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	serveAddress          string
	serveCorpusConfigPath string
)

// serveCmd starts the member-facing contact form.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the member contact form",
	Long:  `The 'serve' command starts the web form that answers member questions from the managed corpus and queues contact requests for follow-up.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(context.Background(), GetConfig(), serveAddress, serveCorpusConfigPath)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (defaults to the configured serve.address)")
	serveCmd.Flags().StringVar(&serveCorpusConfigPath, "corpus-config", "", "path to the corpus config file written by 'corpus create'")
}
