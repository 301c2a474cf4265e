package status

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
)

const (
	serviceGitExecutorMissingMessageConstant = "status service requires a git executor"
	serviceResolverMissingMessageConstant    = "status service requires a path resolver"
	runnerCreationErrorTemplateConstant      = "unable to create git query runner: %w"
	statusRunStartedMessageConstant          = "status run started"
	statusRunFinishedMessageConstant         = "status run finished"
	logFieldRepositoryCountConstant          = "repositories"
	logFieldSkippedIgnoredConstant           = "ignored_skipped"
	logFieldWorkersConstant                  = "workers"
	logFieldFetchConstant                    = "fetch"
	logFieldPullConstant                     = "pull"
	logFieldReportedConstant                 = "reported"
	logFieldExitCodeConstant                 = "exit_code"
)

// ErrServiceGitExecutorMissing indicates the service was created without a git executor.
var ErrServiceGitExecutorMissing = errors.New(serviceGitExecutorMissingMessageConstant)

// ErrServiceResolverMissing indicates the service was created without a path resolver.
var ErrServiceResolverMissing = errors.New(serviceResolverMissingMessageConstant)

// Service wires resolution, classification, scheduling and aggregation for one run.
type Service struct {
	logger     *zap.Logger
	executor   shared.GitExecutor
	resolver   shared.RepositoryPathResolver
	observer   ProgressObserver
	aggregator Aggregator
}

// NewService constructs a Service. The progress observer is optional.
func NewService(logger *zap.Logger, executor shared.GitExecutor, resolver shared.RepositoryPathResolver, observer ProgressObserver) (*Service, error) {
	if executor == nil {
		return nil, ErrServiceGitExecutorMissing
	}
	if resolver == nil {
		return nil, ErrServiceResolverMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, executor: executor, resolver: resolver, observer: observer, aggregator: NewAggregator()}, nil
}

// Run validates the configuration, classifies the descriptors concurrently and reduces the results.
// A configuration error is returned before anything is scheduled. When executionContext is
// cancelled the report covers the repositories that finished and the context error is returned.
func (service *Service) Run(executionContext context.Context, descriptors []shared.RepoDescriptor, configuration RunConfiguration) (Report, error) {
	if validationError := configuration.Validate(); validationError != nil {
		return Report{ExitCode: ExitCodeConfigurationError}, validationError
	}

	runner, runnerError := gitquery.NewRunner(service.executor, configuration.RemoteName, configuration.QueryTimeout)
	if runnerError != nil {
		return Report{ExitCode: ExitCodeConfigurationError}, fmt.Errorf(runnerCreationErrorTemplateConstant, runnerError)
	}

	classifier, classifierError := NewClassifier(service.resolver, runner, configuration, service.logger)
	if classifierError != nil {
		return Report{ExitCode: ExitCodeConfigurationError}, classifierError
	}

	scheduler, schedulerError := NewScheduler(configuration.WorkerCount, configuration.PerTaskTimeout, service.observer, service.logger)
	if schedulerError != nil {
		return Report{ExitCode: ExitCodeConfigurationError}, schedulerError
	}

	scheduledDescriptors := selectDescriptors(descriptors, configuration)
	service.logger.Info(
		statusRunStartedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(scheduledDescriptors)),
		zap.Int(logFieldSkippedIgnoredConstant, len(descriptors)-len(scheduledDescriptors)),
		zap.Int(logFieldWorkersConstant, configuration.WorkerCount),
		zap.Bool(logFieldFetchConstant, configuration.DoFetch),
		zap.Bool(logFieldPullConstant, configuration.DoPull),
	)

	results, runError := scheduler.Run(executionContext, scheduledDescriptors, classifier.Classify)
	report := service.aggregator.Reduce(results, configuration)

	service.logger.Info(
		statusRunFinishedMessageConstant,
		zap.Int(logFieldReportedConstant, len(report.Results)),
		zap.Int(logFieldExitCodeConstant, report.ExitCode),
	)
	return report, runError
}

// selectDescriptors drops ignored repositories before scheduling so fetch and pull never touch them.
func selectDescriptors(descriptors []shared.RepoDescriptor, configuration RunConfiguration) []shared.RepoDescriptor {
	if configuration.IncludeIgnored {
		return descriptors
	}
	selected := make([]shared.RepoDescriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Ignored {
			continue
		}
		selected = append(selected, descriptor)
	}
	return selected
}
