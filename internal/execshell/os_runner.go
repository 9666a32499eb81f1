package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner starts real processes through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command and waits for it. A non-zero exit code is reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

// mergeEnvironment replaces inherited variables that the overrides redefine.
func mergeEnvironment(inherited []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(inherited)+len(overrides))
	for _, assignment := range inherited {
		variableName, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if _, overridden := overrides[variableName]; overridden {
			continue
		}
		merged = append(merged, assignment)
	}

	overrideNames := make([]string, 0, len(overrides))
	for variableName := range overrides {
		overrideNames = append(overrideNames, variableName)
	}
	sort.Strings(overrideNames)
	for _, variableName := range overrideNames {
		merged = append(merged, variableName+environmentAssignmentSeparatorConstant+overrides[variableName])
	}
	return merged
}
