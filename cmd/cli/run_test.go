package cli_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"4d63.com/testcli"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gitstat/cmd/cli"
)

const (
	programNameConstant            = "gitstat"
	noColorFlagConstant            = "--no-color"
	trackedFileNameConstant        = "README.md"
	trackedFileContentConstant     = "content"
	untrackedFileNameConstant      = "notes.txt"
	noRepositoriesMessageConstant  = "no repositories given and none are tracked"
	usageMarkerConstant            = "Usage:"
	fixtureFilePermissionsConstant = 0o644
)

// setupGit isolates git and gitstat configuration in temporary directories.
func setupGit(t *testing.T) {
	t.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		t.Skip("git executable not available")
	}
	homeDirectory := testcli.MkdirTemp(t)
	t.Setenv("HOME", homeDirectory)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectory, ".config"))
	testcli.Exec(t, "git config --global user.email 'tests@example.com'")
	testcli.Exec(t, "git config --global user.name 'Tests'")
	testcli.Exec(t, "git config --global init.defaultBranch main")
}

func gitExec(t *testing.T, command string) string {
	_, stdout, _ := testcli.Exec(t, command)
	return strings.TrimSpace(stdout)
}

// newRepository creates a repository with one commit and returns its canonical path.
func newRepository(t *testing.T) string {
	t.Helper()
	directory := testcli.MkdirTemp(t)
	testcli.Chdir(t, directory)
	testcli.Exec(t, "git init")
	writeFile(t, trackedFileNameConstant, []byte(trackedFileContentConstant))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Initial commit'")
	return canonicalPath(t, directory)
}

// writeFile writes data to path, relative paths resolving against the working directory.
func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, fixtureFilePermissionsConstant))
}

func canonicalPath(t *testing.T, path string) string {
	t.Helper()
	resolvedPath, resolveError := filepath.EvalSymlinks(path)
	require.NoError(t, resolveError)
	return resolvedPath
}

func runGitstat(t *testing.T, arguments ...string) (int, string, string) {
	t.Helper()
	return testcli.Main(t, append([]string{programNameConstant}, arguments...), nil, cli.Run)
}

func TestCheckCleanRepositoryPrintsNothing(t *testing.T) {
	setupGit(t)
	repositoryPath := newRepository(t)

	exitCode, stdout, stderr := runGitstat(t, "check", noColorFlagConstant, repositoryPath)
	require.Equal(t, 0, exitCode)
	require.Empty(t, stdout)
	require.Empty(t, stderr)

	allExitCode, allStdout, _ := runGitstat(t, "check", "--all", noColorFlagConstant, repositoryPath)
	require.Equal(t, 0, allExitCode)
	require.Equal(t, repositoryPath+"  no upstream branch\n", allStdout)
}

func TestCheckReportsLocalChanges(t *testing.T) {
	setupGit(t)
	repositoryPath := newRepository(t)
	writeFile(t, untrackedFileNameConstant, []byte(trackedFileContentConstant))
	writeFile(t, trackedFileNameConstant, []byte("changed"))

	exitCode, stdout, _ := runGitstat(t, noColorFlagConstant, repositoryPath)
	require.Equal(t, 1, exitCode)
	require.Equal(t, repositoryPath+"  unstaged changes, untracked files, no upstream branch\n", stdout)

	quietExitCode, quietStdout, quietStderr := runGitstat(t, "--quiet", repositoryPath)
	require.Equal(t, 1, quietExitCode)
	require.Empty(t, quietStdout)
	require.Empty(t, quietStderr)
}

func TestCheckReportsNonRepositoryAsFailure(t *testing.T) {
	setupGit(t)
	repositoryPath := newRepository(t)
	plainDirectory := canonicalPath(t, testcli.MkdirTemp(t))

	exitCode, stdout, _ := runGitstat(t, noColorFlagConstant, repositoryPath, plainDirectory)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stdout, plainDirectory)
	require.Contains(t, stdout, "error: not_a_git_repo")
}

func TestTrackedRepositoriesCheckedWithoutArguments(t *testing.T) {
	setupGit(t)
	repositoryPath := newRepository(t)

	trackExitCode, trackStdout, trackStderr := runGitstat(t, "track", repositoryPath)
	require.Equal(t, 0, trackExitCode, trackStderr)
	require.Equal(t, "tracking "+repositoryPath+"\n", trackStdout)

	writeFile(t, untrackedFileNameConstant, []byte(trackedFileContentConstant))

	exitCode, stdout, _ := runGitstat(t, noColorFlagConstant)
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout, repositoryPath+"  untracked files")

	ignoreExitCode, _, _ := runGitstat(t, "ignore", repositoryPath)
	require.Equal(t, 0, ignoreExitCode)

	ignoredExitCode, ignoredStdout, _ := runGitstat(t, noColorFlagConstant)
	require.Equal(t, 0, ignoredExitCode)
	require.Empty(t, ignoredStdout)

	isTrackedExitCode, isTrackedStdout, _ := runGitstat(t, "is-tracked", repositoryPath)
	require.Equal(t, 0, isTrackedExitCode)
	require.Equal(t, repositoryPath+": is being tracked\n", isTrackedStdout)
}

func TestCheckWithoutRepositoriesPrintsHelp(t *testing.T) {
	setupGit(t)
	testcli.Chdir(t, testcli.MkdirTemp(t))

	exitCode, stdout, stderr := runGitstat(t)
	require.Equal(t, 3, exitCode)
	require.Contains(t, stdout, usageMarkerConstant)
	require.Contains(t, stderr, noRepositoriesMessageConstant)
}

func TestConfigurationErrorsExitWithThree(t *testing.T) {
	setupGit(t)
	repositoryPath := newRepository(t)
	misspeltConfigurationPath := filepath.Join(testcli.MkdirTemp(t), "config.yaml")
	writeFile(t, misspeltConfigurationPath, []byte("tools:\n  status:\n    worker: 4\n"))

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "zero_workers", arguments: []string{"--workers", "0", repositoryPath}},
		{name: "negative_timeout", arguments: []string{"--timeout", "-1s", repositoryPath}},
		{name: "unknown_flag", arguments: []string{"--frobnicate", repositoryPath}},
		{name: "unknown_log_level", arguments: []string{"--log-level", "loud", repositoryPath}},
		{name: "unknown_configuration_key", arguments: []string{"--config", misspeltConfigurationPath, repositoryPath}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			exitCode, _, stderr := runGitstat(t, testCase.arguments...)
			require.Equal(t, 3, exitCode)
			require.NotEmpty(t, stderr)
		})
	}
}

func TestPullFastForwardsBehindRepository(t *testing.T) {
	setupGit(t)

	remoteDirectory := testcli.MkdirTemp(t)
	testcli.Chdir(t, remoteDirectory)
	testcli.Exec(t, "git init --bare")

	publisherDirectory := testcli.MkdirTemp(t)
	testcli.Chdir(t, publisherDirectory)
	testcli.Exec(t, "git init")
	testcli.Exec(t, "git remote add origin "+remoteDirectory)
	writeFile(t, trackedFileNameConstant, []byte(trackedFileContentConstant))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Initial commit'")
	testcli.Exec(t, "git push -u origin main")

	consumerParent := testcli.MkdirTemp(t)
	testcli.Chdir(t, consumerParent)
	testcli.Exec(t, "git clone "+remoteDirectory+" consumer")
	consumerPath := canonicalPath(t, filepath.Join(consumerParent, "consumer"))

	testcli.Chdir(t, publisherDirectory)
	writeFile(t, untrackedFileNameConstant, []byte(trackedFileContentConstant))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Second commit'")
	testcli.Exec(t, "git push")

	fetchExitCode, fetchStdout, _ := runGitstat(t, "fetch", noColorFlagConstant, consumerPath)
	require.Equal(t, 1, fetchExitCode)
	require.Equal(t, consumerPath+"  pull required\n", fetchStdout)

	pullExitCode, pullStdout, _ := runGitstat(t, "pull", noColorFlagConstant, consumerPath)
	require.Equal(t, 0, pullExitCode)
	require.Equal(t, consumerPath+"  pulled\n", pullStdout)

	testcli.Chdir(t, consumerPath)
	require.Equal(t, gitExec(t, "git rev-parse origin/main"), gitExec(t, "git rev-parse HEAD"))
}
