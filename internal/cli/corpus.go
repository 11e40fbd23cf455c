// internal/cli/corpus.go
package pythia

import (
	"github.com/spf13/cobra"
)

// corpusCmd represents the 'corpus' command group for managed corpus workflows.
var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Group commands for managed retrieval corpora",
	Long:  `The 'corpus' command groups subcommands that build and record the managed retrieval corpus behind the contact form.`,
}

func init() {
	rootCmd.AddCommand(corpusCmd)
}
