package status_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/temirov/gitstat/internal/execshell"
	"github.com/temirov/gitstat/internal/gitquery"
)

const (
	fetchArgumentsConstant             = "fetch --quiet origin"
	refreshArgumentsConstant           = "update-index -q --ignore-submodules --refresh"
	workingTreeArgumentsConstant       = "diff-files --quiet --ignore-submodules"
	indexArgumentsConstant             = "diff --cached --quiet --ignore-submodules"
	untrackedArgumentsConstant         = "ls-files --others --exclude-standard -z"
	divergenceArgumentsConstant        = "rev-list --left-right --count HEAD...@{upstream}"
	remoteURLArgumentsConstant         = "config --get remote.origin.url"
	pullArgumentsConstant              = "pull --ff-only --quiet"
	noUpstreamStandardErrorConstant    = "fatal: no upstream configured for branch 'main'\n"
	notRepositoryStandardErrorConstant = "fatal: not a git repository (or any of the parent directories): .git\n"
)

// repositoryState is the simulated git state of one repository.
type repositoryState struct {
	unstaged    bool
	staged      bool
	untracked   []string
	ahead       int
	behind      int
	noUpstream  bool
	remoteURL   string
	fetchStderr string
	pullStderr  string
	panics      bool
}

// stubGitExecutor answers git queries from simulated repository states keyed by working directory.
type stubGitExecutor struct {
	mutex            sync.Mutex
	repositories     map[string]*repositoryState
	delay            time.Duration
	recordedCommands []string
}

func newStubGitExecutor(repositories map[string]*repositoryState) *stubGitExecutor {
	return &stubGitExecutor{repositories: repositories}
}

func (executor *stubGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")

	if executor.delay > 0 {
		select {
		case <-time.After(executor.delay):
		case <-executionContext.Done():
			return execshell.ExecutionResult{}, execshell.CommandExecutionError{Cause: fmt.Errorf("command interrupted: %w", executionContext.Err())}
		}
	}

	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recordedCommands = append(executor.recordedCommands, details.WorkingDirectory+": "+key)

	state, found := executor.repositories[details.WorkingDirectory]
	if !found {
		return failWith(details, 128, notRepositoryStandardErrorConstant)
	}
	if state.panics {
		panic("simulated git crash")
	}

	switch key {
	case fetchArgumentsConstant:
		if len(state.fetchStderr) > 0 {
			return failWith(details, 128, state.fetchStderr)
		}
		return execshell.ExecutionResult{}, nil
	case refreshArgumentsConstant:
		if state.unstaged {
			return failWith(details, 1, "")
		}
		return execshell.ExecutionResult{}, nil
	case workingTreeArgumentsConstant:
		if state.unstaged {
			return failWith(details, 1, "")
		}
		return execshell.ExecutionResult{}, nil
	case indexArgumentsConstant:
		if state.staged {
			return failWith(details, 1, "")
		}
		return execshell.ExecutionResult{}, nil
	case untrackedArgumentsConstant:
		var output strings.Builder
		for _, path := range state.untracked {
			output.WriteString(path)
			output.WriteString("\x00")
		}
		return execshell.ExecutionResult{StandardOutput: output.String()}, nil
	case divergenceArgumentsConstant:
		if state.noUpstream {
			return failWith(details, 128, noUpstreamStandardErrorConstant)
		}
		return execshell.ExecutionResult{StandardOutput: fmt.Sprintf("%d\t%d\n", state.ahead, state.behind)}, nil
	case remoteURLArgumentsConstant:
		if len(state.remoteURL) == 0 {
			return failWith(details, 1, "")
		}
		return execshell.ExecutionResult{StandardOutput: state.remoteURL + "\n"}, nil
	case pullArgumentsConstant:
		if len(state.pullStderr) > 0 {
			return failWith(details, 1, state.pullStderr)
		}
		state.behind = 0
		return execshell.ExecutionResult{}, nil
	}
	return execshell.ExecutionResult{}, fmt.Errorf("unexpected git command: %s", key)
}

func (executor *stubGitExecutor) commandsFor(repositoryPath string) []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	prefix := repositoryPath + ": "
	commands := make([]string, 0)
	for _, command := range executor.recordedCommands {
		if strings.HasPrefix(command, prefix) {
			commands = append(commands, strings.TrimPrefix(command, prefix))
		}
	}
	return commands
}

func failWith(details execshell.CommandDetails, exitCode int, standardError string) (execshell.ExecutionResult, error) {
	result := execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError}
	return execshell.ExecutionResult{}, execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
		Result:  result,
	}
}

// stubPathResolver accepts every path it knows and rejects the rest as non-repositories.
type stubPathResolver struct {
	known map[string]bool
}

func (resolver stubPathResolver) Resolve(rawPath string) (string, error) {
	trimmedPath := strings.TrimSpace(rawPath)
	if resolver.known[trimmedPath] {
		return trimmedPath, nil
	}
	return "", gitquery.NewRepositoryError(gitquery.ErrorKindNotAGitRepository, "no .git entry in "+trimmedPath)
}

func resolverFor(repositories map[string]*repositoryState) stubPathResolver {
	known := make(map[string]bool, len(repositories))
	for path := range repositories {
		known[path] = true
	}
	return stubPathResolver{known: known}
}

type recordingProgressObserver struct {
	mutex         sync.Mutex
	notifications [][2]int
}

func (observer *recordingProgressObserver) TaskCompleted(completed int, total int) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.notifications = append(observer.notifications, [2]int{completed, total})
}
