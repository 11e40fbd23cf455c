// internal/cli/helpdesk.go
package pythia

import (
	"context"

	"github.com/spf13/cobra"
)

var helpdeskCorpusConfigPath string

// helpdeskCmd represents the 'helpdesk' command.
var helpdeskCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Review and close queued contact requests",
	Long:  `The 'helpdesk' command starts an interactive session for support staff to answer, grade and close queued contact requests.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHelpdesk(context.Background(), GetConfig(), helpdeskCorpusConfigPath)
	},
}

func init() {
	rootCmd.AddCommand(helpdeskCmd)

	helpdeskCmd.Flags().StringVar(&helpdeskCorpusConfigPath, "corpus-config", "", "path to the corpus config file written by 'corpus create'")
}
