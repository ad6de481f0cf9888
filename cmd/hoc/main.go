// Package main is the entry point for the hoc CLI.
//
// hoc runs provisioning procedures: ordered steps executed locally, in a
// transient container or over SSH, with inputs resolved up front or
// prompted for, reverse rollback on failure and resume after interruption.
//
// Commands: run, validate, history, keygen.
//
// For detailed usage information, run:
//
//	hoc --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hoc/cmd/hoc/commands"
	"github.com/imamik/hoc/cmd/hoc/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitError   = 1
	exitFailure = 2 // the procedure ran and failed
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		if handlers.IsFailure(err) {
			os.Exit(exitFailure)
		}
		os.Exit(exitError)
	}
}
