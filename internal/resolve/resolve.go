// Package resolve supplies input values to steps.
//
// A value is taken from the run context first, then from the persistent
// cache for inputs that opt into it, and finally from the operator when a
// terminal is attached. Unattended runs fail with MissingInputError instead
// of prompting.
package resolve

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/hoc/internal/vars"
)

// Input declares a value a step needs.
type Input struct {
	Name string `yaml:"name"`
	// Prompt is the question shown to the operator. Defaults to Name.
	Prompt string `yaml:"prompt,omitempty"`
	// Secret values are read masked and redacted everywhere they are logged.
	Secret bool `yaml:"secret,omitempty"`
	// Choices restricts the answer to one of the listed values.
	Choices []string `yaml:"choices,omitempty"`
	// Verify asks twice and requires both answers to match.
	Verify bool `yaml:"verify,omitempty"`
	// Cache keeps a prompted non-secret value for later runs.
	Cache bool `yaml:"cache,omitempty"`
}

// Title returns the prompt text.
func (in Input) Title() string {
	if in.Prompt != "" {
		return in.Prompt
	}
	return in.Name
}

// MissingInputError reports an input that has no value and could not be
// prompted for.
type MissingInputError struct {
	Name string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %q: no value bound and no interactive terminal", e.Name)
}

// Terminal reports whether an operator can be prompted.
type Terminal interface {
	Interactive() bool
}

// TerminalFunc adapts a function to Terminal.
type TerminalFunc func() bool

// Interactive implements Terminal.
func (f TerminalFunc) Interactive() bool { return f() }

// Unattended never prompts.
var Unattended Terminal = TerminalFunc(func() bool { return false })

// Prompter asks the operator for a value.
type Prompter interface {
	Prompt(ctx context.Context, in Input) (string, error)
}

// Cache persists non-secret values across runs.
type Cache interface {
	Load(name string) (string, bool)
	Store(name, value string) error
}

// Resolver resolves inputs against a run context.
type Resolver struct {
	Terminal Terminal
	Prompter Prompter
	// Cache is optional.
	Cache Cache
	Log   logr.Logger
}

// Resolve returns the value for in, binding it into set when it had to be
// looked up or prompted for.
func (r *Resolver) Resolve(ctx context.Context, set *vars.Set, in Input) (vars.Value, error) {
	if v, ok := set.Get(in.Name); ok {
		return v, nil
	}

	if in.Cache && !in.Secret && r.Cache != nil {
		if data, ok := r.Cache.Load(in.Name); ok {
			v := vars.Value{Name: in.Name, Data: data}
			set.Bind(v)
			r.Log.V(1).Info("input taken from cache", "input", in.Name)
			return v, nil
		}
	}

	if r.Terminal == nil || r.Prompter == nil || !r.Terminal.Interactive() {
		return vars.Value{}, &MissingInputError{Name: in.Name}
	}

	data, err := r.Prompter.Prompt(ctx, in)
	if err != nil {
		return vars.Value{}, fmt.Errorf("failed to read input %q: %w", in.Name, err)
	}
	if len(in.Choices) > 0 && !contains(in.Choices, data) {
		return vars.Value{}, fmt.Errorf("input %q: answer is not one of %v", in.Name, in.Choices)
	}

	v := vars.Value{Name: in.Name, Data: data, Secret: in.Secret}
	set.Bind(v)

	if in.Cache && !in.Secret && r.Cache != nil {
		if err := r.Cache.Store(in.Name, data); err != nil {
			r.Log.Error(err, "failed to cache input", "input", in.Name)
		}
	}
	return v, nil
}

// ResolveAll resolves inputs in order and stops at the first failure.
func (r *Resolver) ResolveAll(ctx context.Context, set *vars.Set, inputs []Input) error {
	for _, in := range inputs {
		if _, err := r.Resolve(ctx, set, in); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
