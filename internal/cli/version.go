package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// These variables are set at build time using -ldflags, e.g.
// go build -ldflags "-X github.com/piwi3910/BarCut/internal/cli.Version=1.0.0"
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of barcut",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "barcut v%s\n", Version)
			fmt.Fprintf(out, "commit %s, built %s\n", GitCommit, BuildTime)
			fmt.Fprintln(out, "Steel Bar Cutting Planner")
		},
	}
}
