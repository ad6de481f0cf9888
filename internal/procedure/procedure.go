package procedure

import (
	"fmt"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/resolve"
)

// Step is one unit of work.
type Step struct {
	Name   string
	Inputs []resolve.Input

	// Command is the command template. Template names a template in the
	// engine's store instead; exactly one of them is set.
	Command  string
	Template string

	// Revert is the optional compensating command, run only when this step
	// succeeded and a later step failed. It may reference the step's inputs
	// and outputs and everything bound before the step ran.
	Revert         string
	RevertTemplate string

	// Stdin is an optional template piped to the command.
	Stdin string

	// Outputs lists the names the command must emit.
	Outputs []string

	// Target overrides the procedure target.
	Target executor.Target

	// Sudo runs the command through sudo with the admin password on stdin.
	Sudo bool

	// SuccessCodes are the exit codes treated as success. Defaults to [0].
	SuccessCodes []int
}

// HasRevert reports whether the step declares a compensating command.
func (s *Step) HasRevert() bool {
	return s.Revert != "" || s.RevertTemplate != ""
}

// Procedure is an ordered sequence of steps run against a default target.
type Procedure struct {
	Name   string
	Target executor.Target
	// Params are resolved before the first step runs.
	Params []resolve.Input
	Steps  []Step
}

// StepNames returns the step names in order.
func (p *Procedure) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of the named step or -1.
func (p *Procedure) Index(name string) int {
	for i, s := range p.Steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// TargetFor returns the target s runs on.
func (p *Procedure) TargetFor(s *Step) executor.Target {
	if s.Target != nil {
		return s.Target
	}
	return p.Target
}

// Validate checks the structure of the procedure. Template references are
// checked by the engine once templates are loaded.
func (p *Procedure) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("procedure name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("procedure %q has no steps", p.Name)
	}
	if err := executor.Validate(p.Target); err != nil {
		return fmt.Errorf("procedure %q: %w", p.Name, err)
	}

	params := make(map[string]bool)
	for _, in := range p.Params {
		if in.Name == "" {
			return fmt.Errorf("procedure %q: parameter name is required", p.Name)
		}
		if params[in.Name] {
			return fmt.Errorf("procedure %q: duplicate parameter %q", p.Name, in.Name)
		}
		params[in.Name] = true
	}

	seen := make(map[string]bool)
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.Name == "" {
			return fmt.Errorf("procedure %q: step %d has no name", p.Name, i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("procedure %q: duplicate step %q", p.Name, s.Name)
		}
		seen[s.Name] = true

		if err := validateStep(s); err != nil {
			return fmt.Errorf("procedure %q: step %q: %w", p.Name, s.Name, err)
		}
		if s.Target != nil {
			if err := executor.Validate(s.Target); err != nil {
				return fmt.Errorf("procedure %q: step %q: %w", p.Name, s.Name, err)
			}
		}
	}
	return nil
}

func validateStep(s *Step) error {
	switch {
	case s.Command == "" && s.Template == "":
		return fmt.Errorf("a command or a template is required")
	case s.Command != "" && s.Template != "":
		return fmt.Errorf("command and template are mutually exclusive")
	case s.Revert != "" && s.RevertTemplate != "":
		return fmt.Errorf("revert and revert template are mutually exclusive")
	}

	inputs := make(map[string]bool)
	for _, in := range s.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input name is required")
		}
		if inputs[in.Name] {
			return fmt.Errorf("duplicate input %q", in.Name)
		}
		inputs[in.Name] = true
	}

	outputs := make(map[string]bool)
	for _, name := range s.Outputs {
		if !validOutputName(name) {
			return fmt.Errorf("invalid output name %q", name)
		}
		if outputs[name] {
			return fmt.Errorf("duplicate output %q", name)
		}
		outputs[name] = true
	}

	for _, code := range s.SuccessCodes {
		if code < 0 || code > 255 {
			return fmt.Errorf("success code %d out of range", code)
		}
	}
	return nil
}
