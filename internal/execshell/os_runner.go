package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
	interruptedCommandTemplateConstant    = "command interrupted: %w"
	// DefaultTerminationGracePeriod bounds how long a killed process may keep its output pipes open.
	DefaultTerminationGracePeriod = 2 * time.Second
)

// OSCommandRunner starts real processes with os/exec and captures their output.
type OSCommandRunner struct {
	terminationGracePeriod time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{terminationGracePeriod: DefaultTerminationGracePeriod}
}

// Run starts the command and waits for it. A non-zero exit is reported through
// ExecutionResult.ExitCode with a nil error. When the context ends the process is
// killed and the context error is returned instead.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.WaitDelay = runner.terminationGracePeriod
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	if runError == nil {
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, fmt.Errorf(interruptedCommandTemplateConstant, contextError)
	}
	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

// mergeEnvironment appends overrides to the inherited environment in key order.
// os/exec keeps the last assignment of a duplicated key, so overrides win.
// A nil result makes the process inherit the parent environment unchanged.
func mergeEnvironment(inherited []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	overrideKeys := make([]string, 0, len(overrides))
	for overrideKey := range overrides {
		overrideKeys = append(overrideKeys, overrideKey)
	}
	sort.Strings(overrideKeys)

	merged := append(make([]string, 0, len(inherited)+len(overrideKeys)), inherited...)
	for _, overrideKey := range overrideKeys {
		merged = append(merged, fmt.Sprintf(environmentAssignmentTemplateConstant, overrideKey, overrides[overrideKey]))
	}
	return merged
}
