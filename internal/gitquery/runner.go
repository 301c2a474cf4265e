package gitquery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/temirov/gitstat/internal/execshell"
	"github.com/temirov/gitstat/internal/repos/shared"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git query runner requires a git executor"
	unknownQueryKindTemplateConstant        = "unknown query kind %q"
	queryTimedOutTemplateConstant           = "git %s did not finish: %v"
	gitNotInstalledDiagnosticConstant       = "git executable not found"
	queryExitCodeTemplateConstant           = "git %s exited with code %d"
	localeEnvironmentKeyConstant            = "LC_ALL"
	localeEnvironmentValueConstant          = "C"
	terminalPromptEnvironmentKeyConstant    = "GIT_TERMINAL_PROMPT"
	terminalPromptEnvironmentValueConstant  = "0"
)

// queryEnvironment keeps git diagnostics in English for ClassifyFailure and stops
// credential prompts from blocking a worker.
func queryEnvironment() map[string]string {
	return map[string]string{
		localeEnvironmentKeyConstant:         localeEnvironmentValueConstant,
		terminalPromptEnvironmentKeyConstant: terminalPromptEnvironmentValueConstant,
	}
}

// ErrGitExecutorNotConfigured indicates the runner was created without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// Runner asks git questions about a repository and turns every failure into a RepositoryError.
type Runner struct {
	executor     shared.GitExecutor
	remoteName   string
	queryTimeout time.Duration
}

// NewRunner constructs a Runner. A zero queryTimeout leaves deadlines to the caller's context.
func NewRunner(executor shared.GitExecutor, remoteName string, queryTimeout time.Duration) (*Runner, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = DefaultRemoteNameConstant
	}
	return &Runner{executor: executor, remoteName: trimmedRemoteName, queryTimeout: queryTimeout}, nil
}

// RemoteName returns the remote used by fetch and remote-url queries.
func (runner *Runner) RemoteName() string {
	return runner.remoteName
}

// Run executes the query inside repositoryRoot. Errors are always *RepositoryError.
func (runner *Runner) Run(executionContext context.Context, repositoryRoot string, kind QueryKind) (QueryResult, error) {
	specification, known := querySpecifications[kind]
	if !known {
		return QueryResult{}, NewRepositoryError(ErrorKindUnknown, fmt.Sprintf(unknownQueryKindTemplateConstant, kind))
	}

	queryContext := executionContext
	if runner.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryContext, cancel = context.WithTimeout(executionContext, runner.queryTimeout)
		defer cancel()
	}

	details := execshell.CommandDetails{
		Arguments:            specification.buildArguments(runner.remoteName),
		WorkingDirectory:     repositoryRoot,
		EnvironmentVariables: queryEnvironment(),
	}

	executionResult, executionError := runner.executor.ExecuteGit(queryContext, details)
	if executionError == nil {
		return QueryResult{
			Kind:           kind,
			StandardOutput: executionResult.StandardOutput,
			StandardError:  executionResult.StandardError,
		}, nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		if specification.accepts(commandFailure.Result.ExitCode) {
			return QueryResult{
				Kind:           kind,
				ExitCode:       commandFailure.Result.ExitCode,
				StandardOutput: commandFailure.Result.StandardOutput,
				StandardError:  commandFailure.Result.StandardError,
			}, nil
		}
		return QueryResult{}, classifyCommandFailure(kind, commandFailure.Result)
	}

	return QueryResult{}, classifyExecutionError(kind, queryContext, executionError)
}

func classifyCommandFailure(kind QueryKind, result execshell.ExecutionResult) *RepositoryError {
	diagnostic := strings.TrimSpace(result.StandardError)
	if len(diagnostic) == 0 {
		diagnostic = fmt.Sprintf(queryExitCodeTemplateConstant, kind, result.ExitCode)
	}
	return NewRepositoryError(ClassifyFailure(result.StandardError), diagnostic)
}

func classifyExecutionError(kind QueryKind, queryContext context.Context, executionError error) *RepositoryError {
	if errors.Is(executionError, context.DeadlineExceeded) || errors.Is(executionError, context.Canceled) || queryContext.Err() != nil {
		return NewRepositoryError(ErrorKindTimeout, fmt.Sprintf(queryTimedOutTemplateConstant, kind, executionError))
	}
	if errors.Is(executionError, exec.ErrNotFound) {
		return NewRepositoryError(ErrorKindUnknown, gitNotInstalledDiagnosticConstant)
	}
	if errors.Is(executionError, fs.ErrPermission) {
		return NewRepositoryError(ErrorKindPermissionDenied, executionError.Error())
	}
	if repositoryError, isRepositoryError := AsRepositoryError(executionError); isRepositoryError {
		return repositoryError
	}
	return NewRepositoryError(ErrorKindUnknown, executionError.Error())
}
