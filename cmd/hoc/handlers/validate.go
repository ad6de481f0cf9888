package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/util/prerequisites"
)

// Validate checks a procedure definition against the configuration without
// running anything. Named templates are fetched from the configured
// sources and the client tools of the targets must be installed.
func Validate(ctx context.Context, configPath, procedurePath string, set []string) error {
	params, err := parseAssignments(set, false)
	if err != nil {
		return err
	}

	env, err := newEnvironment(configPath, stderr, 0)
	if err != nil {
		return err
	}
	proc, err := loadProcedure(procedurePath, env.cfg)
	if err != nil {
		return err
	}

	templates, err := env.templates()
	if err != nil {
		return err
	}
	engine := &procedure.Engine{Templates: templates, Log: env.log}
	if err := engine.Check(ctx, proc, params); err != nil {
		return fmt.Errorf("procedure %s: %w", proc.Name, err)
	}

	targets := make([]executor.Target, 0, len(proc.Steps))
	for i := range proc.Steps {
		targets = append(targets, proc.TargetFor(&proc.Steps[i]))
	}
	tools := prerequisites.ToolsFor(targets, "", env.cfg.Container.Binary)
	if err := checkTools(tools).Error(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %d steps on %s\n", proc.Name, len(proc.Steps), proc.Target.Identity())
	return nil
}
