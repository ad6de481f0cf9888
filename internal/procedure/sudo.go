package procedure

import (
	"strings"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/resolve"
)

// Names of the admin password inputs used by sudo steps.
const (
	LocalPasswordInput  = "admin/passwords/local"
	RemotePasswordInput = "admin/passwords/remote"
)

// SudoPasswordInput returns the secret input holding the admin password for t.
func SudoPasswordInput(t executor.Target) resolve.Input {
	if _, ok := t.(executor.RemoteTarget); ok {
		return resolve.Input{Name: RemotePasswordInput, Prompt: "Admin password on the remote host", Secret: true}
	}
	return resolve.Input{Name: LocalPasswordInput, Prompt: "Local admin password", Secret: true}
}

// WrapSudo runs command through sudo reading the password from stdin.
func WrapSudo(command string) string {
	return "sudo -S -p '' sh -c " + ShellQuote(command)
}

// ShellQuote quotes s as a single POSIX shell word.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
