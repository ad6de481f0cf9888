// Package handlers implements the business logic for CLI commands.
//
// Handlers are called by the command definitions in the commands package.
// They assemble the engine from the configuration and can be tested
// without cobra by replacing the factory variables below.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/imamik/hoc/internal/config"
	"github.com/imamik/hoc/internal/platform/s3"
	"github.com/imamik/hoc/internal/resolve"
	"github.com/imamik/hoc/internal/util/prerequisites"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads the operator configuration.
	loadConfig = config.Load

	// loadProcedure loads a procedure definition file.
	loadProcedure = config.LoadProcedure

	// newExecutor builds the executor for one run.
	newExecutor = defaultExecutor

	// newArchiveClient connects to the archive bucket.
	newArchiveClient = func(ctx context.Context, opts s3.Options) (archiveClient, error) {
		client, err := s3.NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}

	// newKubeClient creates a Kubernetes client for the ConfigMap template source.
	newKubeClient = func(kubeconfig string) (kubernetes.Interface, error) {
		restCfg, err := clientcmd.BuildConfigFromFlags("", config.ExpandHome(kubeconfig))
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		return kubernetes.NewForConfig(restCfg)
	}

	// newTerminal reports whether prompts can be shown.
	newTerminal = func() resolve.Terminal { return resolve.NewStdioTerminal() }

	// newPrompter asks for missing inputs.
	newPrompter = func() resolve.Prompter { return resolve.FormPrompter{} }

	// checkTools looks up the client tools a procedure needs.
	checkTools = prerequisites.Check

	// newRunID overrides run ID generation. Nil uses the engine default.
	newRunID func() string

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// archiveClient is the part of the S3 client the CLI uses.
type archiveClient interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
