package resolve

import (
	"os"

	"github.com/mattn/go-isatty"
)

// StdioTerminal is interactive when both stdin and stdout are terminals.
type StdioTerminal struct {
	In  *os.File
	Out *os.File
}

// NewStdioTerminal checks the process's standard streams.
func NewStdioTerminal() StdioTerminal {
	return StdioTerminal{In: os.Stdin, Out: os.Stdout}
}

// Interactive implements Terminal.
func (t StdioTerminal) Interactive() bool {
	return isTerminal(t.In) && isTerminal(t.Out)
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
