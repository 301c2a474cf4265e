package status

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
)

const (
	queryRunnerNotConfiguredMessageConstant  = "status classifier requires a query runner"
	pathResolverNotConfiguredMessageConstant = "status classifier requires a path resolver"
	repositoryClassifiedMessageConstant      = "repository classified"
	repositoryFailedMessageConstant          = "repository classification failed"
	logFieldRepositoryPathConstant           = "repository_path"
	logFieldErrorKindConstant                = "error_kind"
	logFieldDiagnosticConstant               = "diagnostic"
	logFieldUnstagedConstant                 = "unstaged"
	logFieldStagedConstant                   = "staged"
	logFieldUntrackedCountConstant           = "untracked"
	logFieldAheadConstant                    = "ahead"
	logFieldBehindConstant                   = "behind"
	logFieldPullOutcomeConstant              = "pull"
)

// ErrQueryRunnerNotConfigured indicates the classifier was created without a query runner.
var ErrQueryRunnerNotConfigured = errors.New(queryRunnerNotConfiguredMessageConstant)

// ErrPathResolverNotConfigured indicates the classifier was created without a path resolver.
var ErrPathResolverNotConfigured = errors.New(pathResolverNotConfiguredMessageConstant)

// QueryRunner answers a single git query for a repository root.
type QueryRunner interface {
	Run(executionContext context.Context, repositoryRoot string, kind gitquery.QueryKind) (gitquery.QueryResult, error)
}

// Classifier turns git query answers for one repository into a StatusResult.
type Classifier struct {
	resolver      shared.RepositoryPathResolver
	runner        QueryRunner
	configuration RunConfiguration
	logger        *zap.Logger
}

// NewClassifier constructs a Classifier bound to a run configuration.
func NewClassifier(resolver shared.RepositoryPathResolver, runner QueryRunner, configuration RunConfiguration, logger *zap.Logger) (*Classifier, error) {
	if resolver == nil {
		return nil, ErrPathResolverNotConfigured
	}
	if runner == nil {
		return nil, ErrQueryRunnerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{resolver: resolver, runner: runner, configuration: configuration, logger: logger}, nil
}

// Classify inspects one repository. Failures never escape: they are returned in StatusResult.Failure.
func (classifier *Classifier) Classify(executionContext context.Context, descriptor shared.RepoDescriptor) StatusResult {
	result := classifier.classify(executionContext, descriptor)
	if result.Failure != nil {
		classifier.logger.Debug(
			repositoryFailedMessageConstant,
			zap.String(logFieldRepositoryPathConstant, result.Path),
			zap.String(logFieldErrorKindConstant, string(result.Failure.Kind)),
			zap.String(logFieldDiagnosticConstant, result.Failure.Diagnostic),
		)
		return result
	}
	classifier.logger.Debug(
		repositoryClassifiedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, result.Path),
		zap.Bool(logFieldUnstagedConstant, result.HasUnstagedChanges),
		zap.Bool(logFieldStagedConstant, result.HasUncommittedIndexChanges),
		zap.Int(logFieldUntrackedCountConstant, len(result.UntrackedFiles)),
		zap.Int(logFieldAheadConstant, result.AheadCount),
		zap.Int(logFieldBehindConstant, result.BehindCount),
		zap.String(logFieldPullOutcomeConstant, string(result.Pull)),
	)
	return result
}

func (classifier *Classifier) classify(executionContext context.Context, descriptor shared.RepoDescriptor) StatusResult {
	repositoryRoot, resolveError := classifier.resolver.Resolve(descriptor.Path)
	if resolveError != nil {
		return failureResult(descriptor, strings.TrimSpace(descriptor.Path), asRepositoryError(resolveError))
	}

	resolvedDescriptor := descriptor
	resolvedDescriptor.Path = repositoryRoot
	result := StatusResult{Repository: resolvedDescriptor, Path: repositoryRoot, UntrackedFiles: []string{}}

	if classifier.configuration.DoFetch {
		if _, fetchError := classifier.runner.Run(executionContext, repositoryRoot, gitquery.QueryFetch); fetchError != nil {
			fetchFailure := asRepositoryError(fetchError)
			if fetchFailure.Kind != gitquery.ErrorKindTimeout {
				fetchFailure = gitquery.NewRepositoryError(gitquery.ErrorKindNetworkFailure, fetchFailure.Diagnostic)
			}
			return failureResult(resolvedDescriptor, repositoryRoot, fetchFailure)
		}
	}

	if failure := classifier.inspectLocalChanges(executionContext, &result); failure != nil {
		return failureResult(resolvedDescriptor, repositoryRoot, failure)
	}

	if failure := classifier.inspectDivergence(executionContext, &result); failure != nil {
		return failureResult(resolvedDescriptor, repositoryRoot, failure)
	}

	if failure := classifier.inspectRemoteURL(executionContext, &result); failure != nil {
		return failureResult(resolvedDescriptor, repositoryRoot, failure)
	}

	if classifier.configuration.DoPull {
		if failure := classifier.pullWhenSafe(executionContext, &result); failure != nil {
			return failureResult(resolvedDescriptor, repositoryRoot, failure)
		}
	}

	return result
}

func (classifier *Classifier) inspectLocalChanges(executionContext context.Context, result *StatusResult) *gitquery.RepositoryError {
	if classifier.configuration.RefreshIndex {
		if _, refreshError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryRefreshIndex); refreshError != nil {
			return asRepositoryError(refreshError)
		}
	}

	workingTreeResult, workingTreeError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryWorkingTree)
	if workingTreeError != nil {
		return asRepositoryError(workingTreeError)
	}
	result.HasUnstagedChanges = !workingTreeResult.Succeeded()

	indexResult, indexError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryIndex)
	if indexError != nil {
		return asRepositoryError(indexError)
	}
	result.HasUncommittedIndexChanges = !indexResult.Succeeded()

	untrackedResult, untrackedError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryUntracked)
	if untrackedError != nil {
		return asRepositoryError(untrackedError)
	}
	result.UntrackedFiles = gitquery.ParsePathList(untrackedResult.StandardOutput)

	return nil
}

func (classifier *Classifier) inspectDivergence(executionContext context.Context, result *StatusResult) *gitquery.RepositoryError {
	divergenceResult, divergenceError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryDivergence)
	if divergenceError != nil {
		divergenceFailure := asRepositoryError(divergenceError)
		if divergenceFailure.Kind != gitquery.ErrorKindNoUpstreamConfigured {
			return divergenceFailure
		}
		result.HasUpstream = false
		result.AheadCount = 0
		result.BehindCount = 0
		result.NeedsPull = false
		return nil
	}

	aheadCount, behindCount, parseError := gitquery.ParseDivergenceCounts(divergenceResult.StandardOutput)
	if parseError != nil {
		return gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, parseError.Error())
	}

	result.HasUpstream = true
	result.AheadCount = aheadCount
	result.BehindCount = behindCount
	result.NeedsPull = computeNeedsPull(*result)
	return nil
}

func (classifier *Classifier) inspectRemoteURL(executionContext context.Context, result *StatusResult) *gitquery.RepositoryError {
	remoteURLResult, remoteURLError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryRemoteURL)
	if remoteURLError != nil {
		return asRepositoryError(remoteURLError)
	}
	if !remoteURLResult.Succeeded() {
		result.ActualUpstreamURL = ""
		result.URLMismatch = false
		return nil
	}

	result.ActualUpstreamURL = strings.TrimSpace(remoteURLResult.StandardOutput)
	if result.Repository.HasExpectedUpstreamURL() && len(result.ActualUpstreamURL) > 0 {
		result.URLMismatch = shared.NormalizeRemoteURL(result.Repository.ExpectedUpstreamURL) != shared.NormalizeRemoteURL(result.ActualUpstreamURL)
	}
	return nil
}

func (classifier *Classifier) pullWhenSafe(executionContext context.Context, result *StatusResult) *gitquery.RepositoryError {
	switch {
	case !result.HasUpstream:
		result.Pull = PullSkippedNoUpstream
		return nil
	case result.HasLocalChanges():
		result.Pull = PullSkippedLocalChanges
		return nil
	case result.Diverged():
		result.Pull = PullSkippedDiverged
		return nil
	case !result.NeedsPull:
		result.Pull = PullSkippedUpToDate
		return nil
	}

	if _, pullError := classifier.runner.Run(executionContext, result.Path, gitquery.QueryPull); pullError != nil {
		return asRepositoryError(pullError)
	}
	result.Pull = PullCompleted

	return classifier.inspectDivergence(executionContext, result)
}

func asRepositoryError(err error) *gitquery.RepositoryError {
	if repositoryError, isRepositoryError := gitquery.AsRepositoryError(err); isRepositoryError {
		return repositoryError
	}
	return gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, err.Error())
}
