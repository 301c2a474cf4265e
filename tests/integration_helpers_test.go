package tests

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationBinaryNameConstant    = "gitstat"
	integrationBuildTimeoutConstant  = 2 * time.Minute
	integrationCommandTimeout        = 30 * time.Second
	integrationGitUserEmailConstant  = "tests@example.com"
	integrationGitUserNameConstant   = "Tests"
	integrationDefaultBranchConstant = "main"
)

type integrationResult struct {
	exitCode       int
	standardOutput string
	standardError  string
}

// buildIntegrationBinary compiles the CLI once per test into a temporary directory.
func buildIntegrationBinary(testInstance *testing.T, repositoryRoot string) string {
	testInstance.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	binaryPath := filepath.Join(testInstance.TempDir(), integrationBinaryNameConstant)
	executionContext, cancel := context.WithTimeout(context.Background(), integrationBuildTimeoutConstant)
	defer cancel()

	command := exec.CommandContext(executionContext, "go", "build", "-o", binaryPath, ".")
	command.Dir = repositoryRoot
	outputBytes, buildError := command.CombinedOutput()
	require.NoError(testInstance, buildError, string(outputBytes))
	return binaryPath
}

// runBinaryIntegrationCommand runs the compiled CLI and captures its exit code and streams.
func runBinaryIntegrationCommand(testInstance *testing.T, binaryPath string, workingDirectory string, environmentOverrides map[string]string, arguments ...string) integrationResult {
	testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancel()

	command := exec.CommandContext(executionContext, binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = os.Environ()
	for environmentKey, environmentValue := range environmentOverrides {
		command.Env = append(command.Env, environmentKey+"="+environmentValue)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	command.Stdout = &standardOutput
	command.Stderr = &standardError

	runError := command.Run()
	exitCode := 0
	if runError != nil {
		var exitError *exec.ExitError
		require.True(testInstance, errors.As(runError, &exitError), runError)
		exitCode = exitError.ExitCode()
	}

	return integrationResult{exitCode: exitCode, standardOutput: standardOutput.String(), standardError: standardError.String()}
}

// isolatedEnvironment points HOME and XDG_CONFIG_HOME at a fresh directory with a minimal git identity.
func isolatedEnvironment(testInstance *testing.T) map[string]string {
	testInstance.Helper()
	homeDirectory := testInstance.TempDir()
	environment := map[string]string{
		"HOME":            homeDirectory,
		"XDG_CONFIG_HOME": filepath.Join(homeDirectory, ".config"),
	}
	for _, setting := range [][]string{
		{"user.email", integrationGitUserEmailConstant},
		{"user.name", integrationGitUserNameConstant},
		{"init.defaultBranch", integrationDefaultBranchConstant},
	} {
		runGit(testInstance, homeDirectory, environment, "config", "--global", setting[0], setting[1])
	}
	return environment
}

// initializeRepository creates a repository holding one commit and returns its canonical path.
func initializeRepository(testInstance *testing.T, environment map[string]string) string {
	testInstance.Helper()
	repositoryPath, evalError := filepath.EvalSymlinks(testInstance.TempDir())
	require.NoError(testInstance, evalError)

	runGit(testInstance, repositoryPath, environment, "init")
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "README.md"), []byte("content"), 0o600))
	runGit(testInstance, repositoryPath, environment, "add", ".")
	runGit(testInstance, repositoryPath, environment, "commit", "-m", "Initial commit")
	return repositoryPath
}

func runGit(testInstance *testing.T, workingDirectory string, environment map[string]string, arguments ...string) {
	testInstance.Helper()
	command := exec.Command("git", arguments...)
	command.Dir = workingDirectory
	command.Env = os.Environ()
	for environmentKey, environmentValue := range environment {
		command.Env = append(command.Env, environmentKey+"="+environmentValue)
	}
	outputBytes, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(outputBytes))
}
