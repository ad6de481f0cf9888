// Package prerequisites checks that the client tools a procedure's targets
// depend on are installed.
package prerequisites

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/imamik/hoc/internal/executor"
)

// lookPath can be replaced in tests.
var lookPath = exec.LookPath

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string
	// Description explains what the tool is used for.
	Description string
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// Error returns an error if any tool is missing.
func (r *CheckResults) Error() error {
	if len(r.Missing) == 0 {
		return nil
	}
	missing := make([]string, len(r.Missing))
	for i, tool := range r.Missing {
		missing[i] = fmt.Sprintf("%s (%s)", tool.Name, tool.Description)
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// ToolsFor returns the tools needed to run commands on targets. Remote
// targets need none since the SSH client is built in.
func ToolsFor(targets []executor.Target, shell, containerBinary string) []Tool {
	if shell == "" {
		shell = "sh"
	}
	if containerBinary == "" {
		containerBinary = "docker"
	}

	needed := make(map[string]Tool)
	for _, t := range targets {
		switch t.(type) {
		case executor.LocalTarget:
			needed[shell] = Tool{Name: shell, Description: "runs commands on local targets"}
		case executor.ContainerTarget:
			needed[containerBinary] = Tool{Name: containerBinary, Description: "runs commands on container targets"}
		}
	}

	tools := make([]Tool, 0, len(needed))
	for _, tool := range needed {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Check verifies that the specified tools are available.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}
	for _, tool := range tools {
		result := CheckResult{Tool: tool}
		if path, err := lookPath(tool.Name); err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}
		results.Results = append(results.Results, result)
	}
	return results
}
