package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "actingweb-hooks %s (%s) %s/%s %s\n",
			Version, BuildTime, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}
