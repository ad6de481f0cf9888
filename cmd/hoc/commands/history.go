package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hoc/cmd/hoc/handlers"
)

// History returns the command that prints the run record of a procedure.
func History() *cobra.Command {
	var opts handlers.HistoryOptions

	cmd := &cobra.Command{
		Use:   "history <procedure.yaml>",
		Short: "Show the run record of a procedure",
		Long: `Show the runs recorded for a procedure on its target.

Without --run, one line per run is printed. With --run, the step
transitions of that run are printed. The yaml and json formats print the
raw record entries.

Examples:
  hoc history deploy.yaml
  hoc history deploy.yaml --run 3f0c... -o yaml
  hoc history deploy.yaml --target remote/root@node-1
  hoc history deploy.yaml --archived`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.History(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: hoc.yaml)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Target identity (default: the procedure's target)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "Show a single run")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", handlers.OutputTable, "Output format: table, yaml or json")
	cmd.Flags().BoolVar(&opts.Archived, "archived", false, "Read runs from the archive bucket")

	return cmd
}
