package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "hoc.yaml"

// Config is the operator environment hoc runs in.
type Config struct {
	// StateDir holds run records and the input cache.
	StateDir string `mapstructure:"state_dir" yaml:"state_dir"`

	Log       LogConfig             `mapstructure:"log" yaml:"log"`
	Container ContainerConfig       `mapstructure:"container" yaml:"container"`
	SSH       SSHConfig             `mapstructure:"ssh" yaml:"ssh"`
	Hosts     map[string]HostConfig `mapstructure:"hosts" yaml:"hosts"`
	HCloud    HCloudConfig          `mapstructure:"hcloud" yaml:"hcloud"`
	Templates TemplatesConfig       `mapstructure:"templates" yaml:"templates"`
	Archive   ArchiveConfig         `mapstructure:"archive" yaml:"archive"`
	Metrics   MetricsConfig         `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// ContainerConfig configures the container backend.
type ContainerConfig struct {
	// Binary is the docker compatible CLI, e.g. docker or podman.
	Binary string `mapstructure:"binary" yaml:"binary"`
	// Image is used by container targets that name none.
	Image  string        `mapstructure:"image" yaml:"image"`
	Mounts []MountConfig `mapstructure:"mounts" yaml:"mounts"`
}

// MountConfig is a bind mount added to every container target.
type MountConfig struct {
	Source   string `mapstructure:"source" yaml:"source"`
	Target   string `mapstructure:"target" yaml:"target"`
	ReadOnly bool   `mapstructure:"read_only" yaml:"read_only"`
}

// SSHConfig holds defaults for remote targets.
type SSHConfig struct {
	User string `mapstructure:"user" yaml:"user"`
	Port int    `mapstructure:"port" yaml:"port"`
	// KeyPath points to a PEM private key.
	KeyPath string `mapstructure:"key_path" yaml:"key_path"`
	// PasswordEnv names the environment variable holding the login password.
	PasswordEnv string        `mapstructure:"password_env" yaml:"password_env"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	Retries     int           `mapstructure:"retries" yaml:"retries"`
}

// HostConfig names a remote host. Exactly one of Address and Server is set.
type HostConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	// Server is a Hetzner Cloud server name resolved at dial time.
	Server string `mapstructure:"hcloud" yaml:"hcloud"`
	User   string `mapstructure:"user" yaml:"user"`
	Port   int    `mapstructure:"port" yaml:"port"`
}

// HCloudConfig configures Hetzner Cloud host lookups.
type HCloudConfig struct {
	TokenEnv string `mapstructure:"token_env" yaml:"token_env"`
}

// TemplatesConfig lists the sources of named templates, searched in order:
// the directory first, then the ConfigMap.
type TemplatesConfig struct {
	Dir       string          `mapstructure:"dir" yaml:"dir"`
	ConfigMap ConfigMapSource `mapstructure:"configmap" yaml:"configmap"`
}

// ConfigMapSource points to a Kubernetes ConfigMap holding templates.
type ConfigMapSource struct {
	Namespace  string `mapstructure:"namespace" yaml:"namespace"`
	Name       string `mapstructure:"name" yaml:"name"`
	Kubeconfig string `mapstructure:"kubeconfig" yaml:"kubeconfig"`
}

// Enabled reports whether a ConfigMap source is configured.
func (c ConfigMapSource) Enabled() bool {
	return c.Name != ""
}

// ArchiveConfig configures uploading finished run records to S3.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Region   string `mapstructure:"region" yaml:"region"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	// AccessKeyEnv and SecretKeyEnv name the environment variables holding
	// the credentials.
	AccessKeyEnv string `mapstructure:"access_key_env" yaml:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env" yaml:"secret_key_env"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Container.Binary == "" {
		c.Container.Binary = "docker"
	}
	if c.Container.Image == "" {
		c.Container.Image = "alpine:3.20"
	}
	if c.SSH.User == "" {
		c.SSH.User = "root"
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = 22
	}
	if c.HCloud.TokenEnv == "" {
		c.HCloud.TokenEnv = "HCLOUD_TOKEN"
	}
	if c.Archive.Region == "" {
		c.Archive.Region = "us-east-1"
	}
	if c.Archive.AccessKeyEnv == "" {
		c.Archive.AccessKeyEnv = "HOC_ARCHIVE_ACCESS_KEY"
	}
	if c.Archive.SecretKeyEnv == "" {
		c.Archive.SecretKeyEnv = "HOC_ARCHIVE_SECRET_KEY"
	}
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "hoc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hoc"
	}
	return filepath.Join(home, ".local", "state", "hoc")
}

// RecordsDir is where run records are stored.
func (c *Config) RecordsDir() string {
	return filepath.Join(c.StateDir, "records")
}

// CachePath is the input cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.StateDir, "inputs.yaml")
}

// HostAddresses returns the static alias table. Hosts backed by a Hetzner
// Cloud server map to an hcloud: reference.
func (c *Config) HostAddresses() map[string]string {
	out := make(map[string]string, len(c.Hosts))
	for name, h := range c.Hosts {
		if h.Server != "" {
			out[name] = HCloudPrefix + h.Server
			continue
		}
		out[name] = h.Address
	}
	return out
}

// HCloudPrefix marks a host reference resolved through the Hetzner Cloud API.
const HCloudPrefix = "hcloud:"

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
