package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/resolve"
)

// Target types accepted in procedure files.
const (
	TargetLocal     = "local"
	TargetContainer = "container"
	TargetRemote    = "remote"
)

// ProcedureFile is the YAML form of a procedure.
type ProcedureFile struct {
	Name   string          `yaml:"name"`
	Target *TargetSpec     `yaml:"target"`
	Params []resolve.Input `yaml:"params"`
	Steps  []StepSpec      `yaml:"steps"`
}

// TargetSpec describes where commands run. Fields left empty are taken from
// the configuration.
type TargetSpec struct {
	Type string `yaml:"type"`

	Image  string           `yaml:"image,omitempty"`
	Mounts []executor.Mount `yaml:"mounts,omitempty"`

	// Host is an address, a configured host alias or an hcloud: reference.
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	User        string `yaml:"user,omitempty"`
	KeyPath     string `yaml:"key_path,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// StepSpec is the YAML form of a step.
type StepSpec struct {
	Name           string          `yaml:"name"`
	Inputs         []resolve.Input `yaml:"inputs"`
	Command        string          `yaml:"command"`
	Template       string          `yaml:"template"`
	Revert         string          `yaml:"revert"`
	RevertTemplate string          `yaml:"revert_template"`
	Stdin          string          `yaml:"stdin"`
	Outputs        []string        `yaml:"outputs"`
	Target         *TargetSpec     `yaml:"target"`
	Sudo           bool            `yaml:"sudo"`
	SuccessCodes   []int           `yaml:"success_codes"`
}

// LoadProcedure reads a procedure file.
func LoadProcedure(path string, cfg *Config) (*procedure.Procedure, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read procedure file: %w", err)
	}
	proc, err := ParseProcedure(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return proc, nil
}

// ParseProcedure decodes and validates a procedure definition.
func ParseProcedure(data []byte, cfg *Config) (*procedure.Procedure, error) {
	var file ProcedureFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal procedure: %w", err)
	}
	return file.Build(cfg)
}

// Build converts the file into a procedure, completing targets from cfg.
func (f *ProcedureFile) Build(cfg *Config) (*procedure.Procedure, error) {
	if cfg == nil {
		cfg = Default()
	}
	target, err := f.Target.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	proc := &procedure.Procedure{
		Name:   f.Name,
		Target: target,
		Params: f.Params,
		Steps:  make([]procedure.Step, 0, len(f.Steps)),
	}
	for _, s := range f.Steps {
		step := procedure.Step{
			Name:           s.Name,
			Inputs:         s.Inputs,
			Command:        s.Command,
			Template:       s.Template,
			Revert:         s.Revert,
			RevertTemplate: s.RevertTemplate,
			Stdin:          s.Stdin,
			Outputs:        s.Outputs,
			Sudo:           s.Sudo,
			SuccessCodes:   s.SuccessCodes,
		}
		if s.Target != nil {
			if step.Target, err = s.Target.Build(cfg); err != nil {
				return nil, fmt.Errorf("step %q target: %w", s.Name, err)
			}
		}
		proc.Steps = append(proc.Steps, step)
	}

	if err := proc.Validate(); err != nil {
		return nil, err
	}
	return proc, nil
}

// Build returns the executor target. A nil spec is the local target.
func (t *TargetSpec) Build(cfg *Config) (executor.Target, error) {
	if t == nil {
		return executor.Local(), nil
	}
	switch t.Type {
	case "", TargetLocal:
		return executor.Local(), nil
	case TargetContainer:
		return t.container(cfg), nil
	case TargetRemote:
		return t.remote(cfg)
	default:
		return nil, fmt.Errorf("unknown target type %q (must be local, container or remote)", t.Type)
	}
}

func (t *TargetSpec) container(cfg *Config) executor.ContainerTarget {
	image := t.Image
	if image == "" {
		image = cfg.Container.Image
	}
	mounts := make([]executor.Mount, 0, len(cfg.Container.Mounts)+len(t.Mounts))
	for _, m := range cfg.Container.Mounts {
		mounts = append(mounts, executor.Mount{Source: ExpandHome(m.Source), Target: m.Target, ReadOnly: m.ReadOnly})
	}
	for _, m := range t.Mounts {
		m.Source = ExpandHome(m.Source)
		mounts = append(mounts, m)
	}
	return executor.Containerized(image, mounts...)
}

func (t *TargetSpec) remote(cfg *Config) (executor.RemoteTarget, error) {
	if t.Host == "" {
		return executor.RemoteTarget{}, fmt.Errorf("remote target requires a host")
	}
	alias := cfg.Hosts[t.Host]

	creds := executor.Credentials{
		User: firstNonEmpty(t.User, alias.User, cfg.SSH.User),
	}
	if keyPath := firstNonEmpty(t.KeyPath, cfg.SSH.KeyPath); keyPath != "" {
		key, err := os.ReadFile(ExpandHome(keyPath))
		if err != nil {
			return executor.RemoteTarget{}, fmt.Errorf("failed to read SSH key: %w", err)
		}
		creds.PrivateKey = key
	}
	if env := firstNonEmpty(t.PasswordEnv, cfg.SSH.PasswordEnv); env != "" {
		creds.Password = os.Getenv(env)
	}

	target := executor.Remote(t.Host, creds)
	target.Port = firstNonZero(t.Port, alias.Port, cfg.SSH.Port)
	return target, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
