package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/hoc/internal/config"
	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/logging"
	"github.com/imamik/hoc/internal/metrics"
	"github.com/imamik/hoc/internal/platform/docker"
	"github.com/imamik/hoc/internal/platform/hcloud"
	"github.com/imamik/hoc/internal/platform/s3"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
	"github.com/imamik/hoc/internal/resolve"
	"github.com/imamik/hoc/internal/template"
)

// environment holds what every command derives from the configuration.
type environment struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	log      logr.Logger
	metrics  *metrics.Metrics
	records  *record.Store
}

// newEnvironment loads the configuration and builds the logger. Log lines
// go to logOut.
func newEnvironment(configPath string, logOut io.Writer, verbosity int) (*environment, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(logOut, logging.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Verbosity: verbosity,
	})
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:      cfg,
		timeouts: config.LoadTimeouts(),
		log:      log,
		metrics:  metrics.New(),
		records:  record.NewStore(cfg.RecordsDir()),
	}, nil
}

// engine assembles a procedure engine. Interactive enables prompting for
// missing inputs; sink receives progress events.
func (env *environment) engine(ctx context.Context, interactive bool, sink progress.Sink) (*procedure.Engine, error) {
	templates, err := env.templates()
	if err != nil {
		return nil, err
	}
	resolver, err := env.resolver(interactive)
	if err != nil {
		return nil, err
	}
	archiver, err := env.archiver(ctx)
	if err != nil {
		return nil, err
	}

	e := &procedure.Engine{
		Records:         env.records,
		NewExecutor:     func() procedure.Executor { return newExecutor(env) },
		Resolver:        resolver,
		Templates:       templates,
		Progress:        progress.Multi{sink, progress.LogSink{Log: env.log.V(1)}},
		Metrics:         env.metrics,
		Log:             env.log,
		CommandTimeout:  env.timeouts.Command,
		RollbackTimeout: env.timeouts.Rollback,
		NewRunID:        newRunID,
	}
	if archiver != nil {
		e.Archiver = archiver
	}
	return e, nil
}

// templates chains the configured template sources. Nil means no named
// templates are available.
func (env *environment) templates() (template.Store, error) {
	var chain template.Chain
	if dir := env.cfg.Templates.Dir; dir != "" {
		chain = append(chain, template.NewDirStore(config.ExpandHome(dir)))
	}
	if cm := env.cfg.Templates.ConfigMap; cm.Enabled() {
		client, err := newKubeClient(cm.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
		}
		chain = append(chain, template.NewConfigMapStore(client, cm.Namespace, cm.Name))
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

func (env *environment) resolver(interactive bool) (*resolve.Resolver, error) {
	cache, err := resolve.NewFileCache(env.cfg.CachePath())
	if err != nil {
		return nil, err
	}
	r := &resolve.Resolver{
		Terminal: resolve.Unattended,
		Cache:    cache,
		Log:      env.log,
	}
	if interactive {
		r.Terminal = newTerminal()
		r.Prompter = newPrompter()
	}
	return r, nil
}

// archiver returns nil when archiving is disabled.
func (env *environment) archiver(ctx context.Context) (*record.S3Archiver, error) {
	if !env.cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := env.archiveClient(ctx)
	if err != nil {
		return nil, err
	}
	return &record.S3Archiver{Uploader: client, Prefix: env.cfg.Archive.Prefix}, nil
}

func (env *environment) archiveClient(ctx context.Context) (archiveClient, error) {
	a := env.cfg.Archive
	client, err := newArchiveClient(ctx, s3.Options{
		Endpoint:  a.Endpoint,
		Region:    a.Region,
		Bucket:    a.Bucket,
		AccessKey: os.Getenv(a.AccessKeyEnv),
		SecretKey: os.Getenv(a.SecretKeyEnv),
		PathStyle: a.Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}
	return client, nil
}

// writeMetrics exports the run metrics when a textfile is configured.
func (env *environment) writeMetrics() {
	path := env.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := env.metrics.WriteTextfile(config.ExpandHome(path)); err != nil {
		env.log.Error(err, "failed to export metrics")
	}
}

// defaultExecutor routes commands to the local shell, the container CLI
// and SSH. Remote hosts are resolved through the configured aliases first
// and then through Hetzner Cloud.
func defaultExecutor(env *environment) procedure.Executor {
	runtime := docker.New()
	runtime.Binary = env.cfg.Container.Binary
	runtime.WaitTimeout = env.timeouts.DockerWait

	hosts := hcloud.NewResolver(os.Getenv(env.cfg.HCloud.TokenEnv),
		hcloud.WithNext(executor.Hosts(env.cfg.HostAddresses())),
		hcloud.WithMetrics(env.metrics),
		hcloud.WithLogger(env.log.WithName("hcloud")),
		hcloud.WithTimeouts(env.timeouts),
	)

	dialer := &executor.SSHDialer{
		Resolver:    hosts,
		DialTimeout: env.cfg.SSH.DialTimeout,
		MaxRetries:  env.cfg.SSH.Retries,
		RetryDelay:  env.timeouts.RetryInitialDelay,
		Log:         env.log.WithName("ssh"),
	}
	if dialer.DialTimeout == 0 {
		dialer.DialTimeout = env.timeouts.SSHDial
	}

	return executor.NewDispatcher(&executor.LocalBackend{}, runtime, dialer, env.log.WithName("executor"))
}
