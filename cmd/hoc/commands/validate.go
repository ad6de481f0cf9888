package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hoc/cmd/hoc/handlers"
)

// Validate returns the command that checks a procedure without running it.
func Validate() *cobra.Command {
	var (
		configPath string
		set        []string
	)

	cmd := &cobra.Command{
		Use:   "validate <procedure.yaml>",
		Short: "Check a procedure without running it",
		Long: `Check that a procedure file parses, that its targets are complete and
that every placeholder is bound by a parameter, an input or the output of
an earlier step. Named templates are loaded from the configured sources.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Validate(cmd.Context(), configPath, args[0], set)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: hoc.yaml)")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Treat this name as bound (name=value, repeatable)")

	return cmd
}
