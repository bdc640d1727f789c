package probe

import (
	"github.com/spf13/cobra"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks whether the service process is alive",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)
			runProbe("/-/healthy", verbose)
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response")
	return cmd
}
