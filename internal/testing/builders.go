package testing

import (
	"slices"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/resolve"
)

// ProcedureBuilder provides a fluent interface for constructing test procedures.
// Each method returns a new builder (immutable) for chaining.
type ProcedureBuilder struct {
	proc procedure.Procedure
}

// NewProcedureBuilder creates a builder for a procedure running locally.
func NewProcedureBuilder(name string) *ProcedureBuilder {
	return &ProcedureBuilder{
		proc: procedure.Procedure{
			Name:   name,
			Target: executor.Local(),
		},
	}
}

// WithTarget sets the default target.
func (b *ProcedureBuilder) WithTarget(t executor.Target) *ProcedureBuilder {
	newBuilder := b.clone()
	newBuilder.proc.Target = t
	return newBuilder
}

// WithParam declares a parameter.
func (b *ProcedureBuilder) WithParam(in resolve.Input) *ProcedureBuilder {
	newBuilder := b.clone()
	newBuilder.proc.Params = append(newBuilder.proc.Params, in)
	return newBuilder
}

// WithStep appends a step.
func (b *ProcedureBuilder) WithStep(s StepBuilder) *ProcedureBuilder {
	newBuilder := b.clone()
	newBuilder.proc.Steps = append(newBuilder.proc.Steps, s.Build())
	return newBuilder
}

// Build returns the constructed procedure.
func (b *ProcedureBuilder) Build() *procedure.Procedure {
	p := b.clone().proc
	return &p
}

func (b *ProcedureBuilder) clone() *ProcedureBuilder {
	p := b.proc
	p.Params = slices.Clone(b.proc.Params)
	p.Steps = slices.Clone(b.proc.Steps)
	return &ProcedureBuilder{proc: p}
}

// StepBuilder builds a step by value.
type StepBuilder struct {
	step procedure.Step
}

// Step starts a step running command.
func Step(name, command string) StepBuilder {
	return StepBuilder{step: procedure.Step{Name: name, Command: command}}
}

// Revert sets the compensating command.
func (s StepBuilder) Revert(command string) StepBuilder {
	s.step.Revert = command
	return s
}

// Outputs declares outputs.
func (s StepBuilder) Outputs(names ...string) StepBuilder {
	s.step.Outputs = append(slices.Clone(s.step.Outputs), names...)
	return s
}

// Input declares an input.
func (s StepBuilder) Input(in resolve.Input) StepBuilder {
	s.step.Inputs = append(slices.Clone(s.step.Inputs), in)
	return s
}

// Stdin sets the stdin template.
func (s StepBuilder) Stdin(text string) StepBuilder {
	s.step.Stdin = text
	return s
}

// Sudo marks the step as running through sudo.
func (s StepBuilder) Sudo() StepBuilder {
	s.step.Sudo = true
	return s
}

// On overrides the target.
func (s StepBuilder) On(t executor.Target) StepBuilder {
	s.step.Target = t
	return s
}

// SuccessCodes sets the accepted exit codes.
func (s StepBuilder) SuccessCodes(codes ...int) StepBuilder {
	s.step.SuccessCodes = codes
	return s
}

// Build returns the step.
func (s StepBuilder) Build() procedure.Step {
	return s.step
}
