package handlers

import (
	"fmt"

	"github.com/imamik/hoc/internal/config"
	"github.com/imamik/hoc/internal/util/keygen"
)

// generateKey can be replaced in tests to avoid slow RSA generation.
var generateKey = keygen.Generate

// KeygenOptions are the flags of the keygen command.
type KeygenOptions struct {
	Path      string
	Type      string
	Bits      int
	Comment   string
	Overwrite bool
}

// Keygen writes an admin SSH key pair for remote targets and prints the
// public key so it can be added to authorized_keys on the hosts.
func Keygen(opts KeygenOptions) error {
	kp, err := generateKey(keygen.Type(opts.Type), opts.Bits, opts.Comment)
	if err != nil {
		return err
	}

	path := config.ExpandHome(opts.Path)
	if err := kp.Write(path, opts.Overwrite); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Private key written to: %s\n", path)
	fmt.Fprintf(stdout, "Public key written to:  %s.pub\n\n", path)
	fmt.Fprintf(stdout, "%s", kp.PublicKey)
	fmt.Fprintf(stdout, "\nSet ssh.key_path to %s in hoc.yaml to use it for remote targets.\n", path)
	return nil
}
