package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hoc/cmd/hoc/handlers"
)

// Run returns the command that executes a procedure.
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run <procedure.yaml>",
		Short: "Run a procedure",
		Long: `Run the steps of a procedure in order against its target.

When a step fails, the steps that already succeeded are rolled back in
reverse order using their revert commands. An interrupted run is resumed
from the first unfinished step the next time it is started. A procedure
that already succeeded is not run again unless --from is given.

Missing inputs are prompted for when a terminal is attached. Values can be
passed up front with --set and --secret; secrets are never written to the
run record.

Examples:
  # Run a procedure, prompting for missing inputs
  hoc run deploy.yaml

  # Provide inputs without prompting
  hoc run deploy.yaml --set host=10.0.0.5 --secret admin/passwords/remote=s3cret

  # Re-run a succeeded procedure from the "configure" step
  hoc run deploy.yaml --from configure

  # Discard the previous record and start over
  hoc run deploy.yaml --fresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Run(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: hoc.yaml)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Start a new run at this step; earlier steps must have succeeded")
	cmd.Flags().BoolVar(&opts.Fresh, "fresh", false, "Ignore the previous run record")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Bind an input value (name=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.Secrets, "secret", nil, "Bind a secret input value (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show live progress; inputs must be provided up front")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase log verbosity")
	cmd.MarkFlagsMutuallyExclusive("from", "fresh")

	return cmd
}
