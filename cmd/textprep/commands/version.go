package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Montasar-Dridi/job-recommender-system/internal/output"
	"github.com/Montasar-Dridi/job-recommender-system/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		}
		return writeRecords(cmd, "", output.FormatJSON, 1, func(int) any { return version.Get() })
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print as JSON")
}
