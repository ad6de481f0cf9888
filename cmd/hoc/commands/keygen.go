package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hoc/cmd/hoc/handlers"
)

// Keygen returns the command that creates an admin SSH key pair.
func Keygen() *cobra.Command {
	var opts handlers.KeygenOptions

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an SSH key pair for remote targets",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Keygen(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "file", "f", "~/.ssh/id_hoc", "Private key path; the public key gets a .pub suffix")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "rsa", "Key type: rsa or ed25519")
	cmd.Flags().IntVarP(&opts.Bits, "bits", "b", 4096, "RSA key size")
	cmd.Flags().StringVarP(&opts.Comment, "comment", "C", "hoc-admin", "Public key comment")
	cmd.Flags().BoolVar(&opts.Overwrite, "force", false, "Overwrite existing key files")

	return cmd
}
