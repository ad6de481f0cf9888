package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time through SetVersionInfo.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo records the build metadata main was linked with.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

// Version returns the version command. It prints the build metadata and the
// Go runtime and platform.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and runtime information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hoc %s (commit %s, built %s)\n  %s %s/%s\n",
				version, commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
