package status

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/execshell"
	"github.com/temirov/gitstat/internal/repos/dependencies"
	"github.com/temirov/gitstat/internal/repos/shared"
	"github.com/temirov/gitstat/internal/utils"
	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

const (
	checkCommandUseConstant               = "check [PATH...]"
	checkCommandShortDescriptionConstant  = "Report uncommitted, unpushed and unpulled work across repositories"
	checkCommandLongDescriptionConstant   = "check inspects every given repository, or every tracked repository when no path is given, and lists the ones that need attention. The exit code is 0 when everything is clean, 1 when something needs attention and 2 when a repository could not be inspected."
	fetchCommandUseConstant               = "fetch [PATH...]"
	fetchCommandShortDescriptionConstant  = "Fetch from the remote, then report status"
	fetchCommandLongDescriptionConstant   = "fetch runs git fetch in every selected repository before checking it, so behind counts reflect the remote."
	pullCommandUseConstant                = "pull [PATH...]"
	pullCommandShortDescriptionConstant   = "Fetch and fast-forward clean repositories, then report status"
	pullCommandLongDescriptionConstant    = "pull fetches every selected repository and fast-forwards the ones without local changes whose branch is only behind its upstream. Other repositories are left untouched and the reason is reported."
	flagAllNameConstant                   = "all"
	flagAllShorthandConstant              = "a"
	flagAllDescriptionConstant            = "Also list repositories that are up to date"
	flagIncludeIgnoredNameConstant        = "include-ignored"
	flagIncludeIgnoredDescriptionConstant = "Also check repositories marked as ignored"
	flagQuietNameConstant                 = "quiet"
	flagQuietShorthandConstant            = "q"
	flagQuietDescriptionConstant          = "Print nothing; only set the exit code"
	flagProgressNameConstant              = "progress"
	flagProgressShorthandConstant         = "p"
	flagProgressDescriptionConstant       = "Show progress on standard error"
	flagFetchNameConstant                 = "fetch"
	flagFetchDescriptionConstant          = "Fetch from the remote before checking"
	flagPullNameConstant                  = "pull"
	flagPullDescriptionConstant           = "Fast-forward repositories that are behind and clean"
	flagWorkersNameConstant               = "workers"
	flagWorkersDescriptionConstant        = "Number of repositories checked in parallel"
	flagTimeoutNameConstant               = "timeout"
	flagTimeoutDescriptionConstant        = "Time limit for checking one repository"
	flagRemoteNameConstant                = "remote"
	flagRemoteDescriptionConstant         = "Remote fetched from and compared against"
	flagNoColorNameConstant               = "no-color"
	flagNoColorDescriptionConstant        = "Disable colored output"
	noRepositoriesMessageConstant         = "no repositories given and none are tracked"
	repositorySourceErrorTemplateConstant = "unable to load tracked repositories: %w"
	statusRunErrorTemplateConstant        = "status run failed: %w"
	reportRenderErrorTemplateConstant     = "unable to render report: %w"
)

// ErrNoRepositories indicates a run with neither path arguments nor tracked repositories.
var ErrNoRepositories = errors.New(noRepositoriesMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the persisted status configuration.
type ConfigurationProvider func() CommandConfiguration

// RepositorySource supplies tracked repositories and enriches ad hoc paths with tracked metadata.
type RepositorySource interface {
	TrackedDescriptors() ([]shared.RepoDescriptor, error)
	DescribePath(rawPath string) (shared.RepoDescriptor, error)
}

// RepositorySourceProvider opens the repository source for one command execution.
type RepositorySourceProvider func() (RepositorySource, error)

// ReportPresenter writes a report for humans.
type ReportPresenter interface {
	Present(report Report) error
}

// ReportPresenterFactory builds a presenter writing to the supplied writer.
type ReportPresenterFactory func(writer io.Writer, colorEnabled bool) ReportPresenter

// ProgressObserverFactory builds a progress observer writing to the supplied writer.
type ProgressObserverFactory func(writer io.Writer) ProgressObserver

// CommandBuilder assembles the check, fetch and pull cobra commands.
type CommandBuilder struct {
	LoggerProvider           LoggerProvider
	ConfigurationProvider    ConfigurationProvider
	RepositorySourceProvider RepositorySourceProvider
	PresenterFactory         ReportPresenterFactory
	ProgressFactory          ProgressObserverFactory
	GitExecutor              shared.GitExecutor
	PathResolver             shared.RepositoryPathResolver
	CommandEventsObserver    execshell.CommandEventObserver
	PathSanitizer            *pathutils.RepositoryPathSanitizer
}

type commandMode struct {
	use              string
	shortDescription string
	longDescription  string
	fetch            bool
	pull             bool
}

type commandOptions struct {
	paths         []string
	configuration RunConfiguration
	quiet         bool
	progress      bool
	colorEnabled  bool
}

// Build constructs the check command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	return builder.buildCommand(commandMode{
		use:              checkCommandUseConstant,
		shortDescription: checkCommandShortDescriptionConstant,
		longDescription:  checkCommandLongDescriptionConstant,
	})
}

// BuildFetch constructs the fetch shortcut command.
func (builder *CommandBuilder) BuildFetch() (*cobra.Command, error) {
	return builder.buildCommand(commandMode{
		use:              fetchCommandUseConstant,
		shortDescription: fetchCommandShortDescriptionConstant,
		longDescription:  fetchCommandLongDescriptionConstant,
		fetch:            true,
	})
}

// BuildPull constructs the pull shortcut command. Pulling implies fetching first.
func (builder *CommandBuilder) BuildPull() (*cobra.Command, error) {
	return builder.buildCommand(commandMode{
		use:              pullCommandUseConstant,
		shortDescription: pullCommandShortDescriptionConstant,
		longDescription:  pullCommandLongDescriptionConstant,
		fetch:            true,
		pull:             true,
	})
}

func (builder *CommandBuilder) buildCommand(mode commandMode) (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   mode.use,
		Short: mode.shortDescription,
		Long:  mode.longDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, mode)
		},
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().BoolP(flagAllNameConstant, flagAllShorthandConstant, false, flagAllDescriptionConstant)
	command.Flags().Bool(flagIncludeIgnoredNameConstant, false, flagIncludeIgnoredDescriptionConstant)
	command.Flags().BoolP(flagQuietNameConstant, flagQuietShorthandConstant, false, flagQuietDescriptionConstant)
	command.Flags().BoolP(flagProgressNameConstant, flagProgressShorthandConstant, false, flagProgressDescriptionConstant)
	if !mode.fetch {
		command.Flags().Bool(flagFetchNameConstant, false, flagFetchDescriptionConstant)
	}
	if !mode.pull {
		command.Flags().Bool(flagPullNameConstant, false, flagPullDescriptionConstant)
	}
	command.Flags().Int(flagWorkersNameConstant, defaults.Workers, flagWorkersDescriptionConstant)
	command.Flags().Duration(flagTimeoutNameConstant, defaults.TaskTimeout, flagTimeoutDescriptionConstant)
	command.Flags().String(flagRemoteNameConstant, defaults.RemoteName, flagRemoteDescriptionConstant)
	command.Flags().Bool(flagNoColorNameConstant, false, flagNoColorDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, mode commandMode) error {
	options := builder.parseOptions(command, arguments, mode)
	if validationError := options.configuration.Validate(); validationError != nil {
		return utils.NewExitStatusError(ExitCodeConfigurationError, validationError)
	}

	descriptors, descriptorsError := builder.collectDescriptors(options.paths)
	if descriptorsError != nil {
		return descriptorsError
	}
	if len(descriptors) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return utils.NewExitStatusError(ExitCodeConfigurationError, ErrNoRepositories)
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
	if executorError != nil {
		return executorError
	}
	resolver := dependencies.ResolveRepositoryPathResolver(builder.PathResolver, nil)

	var progressObserver ProgressObserver
	if options.progress && !options.quiet && builder.ProgressFactory != nil {
		progressObserver = builder.ProgressFactory(command.ErrOrStderr())
	}

	service, serviceError := NewService(logger, gitExecutor, resolver, progressObserver)
	if serviceError != nil {
		return serviceError
	}

	report, runError := service.Run(command.Context(), descriptors, options.configuration)
	if runError != nil && IsConfigurationError(runError) {
		return utils.NewExitStatusError(ExitCodeConfigurationError, runError)
	}

	if !options.quiet && builder.PresenterFactory != nil {
		presenter := builder.PresenterFactory(command.OutOrStdout(), options.colorEnabled)
		if presentError := presenter.Present(report); presentError != nil {
			return fmt.Errorf(reportRenderErrorTemplateConstant, presentError)
		}
	}

	if runError != nil {
		return utils.NewExitStatusError(ExitCodeFailures, fmt.Errorf(statusRunErrorTemplateConstant, runError))
	}
	if report.ExitCode != ExitCodeClean {
		return utils.NewExitStatusError(report.ExitCode, nil)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string, mode commandMode) commandOptions {
	persisted := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		persisted = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	if flags.Changed(flagWorkersNameConstant) {
		persisted.Workers, _ = flags.GetInt(flagWorkersNameConstant)
	}
	if flags.Changed(flagTimeoutNameConstant) {
		persisted.TaskTimeout, _ = flags.GetDuration(flagTimeoutNameConstant)
	}
	if flags.Changed(flagRemoteNameConstant) {
		persisted.RemoteName, _ = flags.GetString(flagRemoteNameConstant)
	}
	if flags.Changed(flagAllNameConstant) {
		persisted.IncludeUpToDate, _ = flags.GetBool(flagAllNameConstant)
	}
	if flags.Changed(flagIncludeIgnoredNameConstant) {
		persisted.IncludeIgnored, _ = flags.GetBool(flagIncludeIgnoredNameConstant)
	}
	if flags.Changed(flagProgressNameConstant) {
		persisted.Progress, _ = flags.GetBool(flagProgressNameConstant)
	}
	if flags.Changed(flagNoColorNameConstant) {
		noColor, _ := flags.GetBool(flagNoColorNameConstant)
		persisted.Color = !noColor
	}

	configuration := persisted.RunConfiguration()
	configuration.DoFetch = mode.fetch || builder.flagEnabled(command, flagFetchNameConstant)
	configuration.DoPull = mode.pull || builder.flagEnabled(command, flagPullNameConstant)
	if configuration.DoPull {
		configuration.DoFetch = true
	}

	quiet, _ := flags.GetBool(flagQuietNameConstant)

	return commandOptions{
		paths:         builder.resolvePathSanitizer().Sanitize(arguments),
		configuration: configuration,
		quiet:         quiet,
		progress:      persisted.Progress,
		colorEnabled:  persisted.Color,
	}
}

func (builder *CommandBuilder) flagEnabled(command *cobra.Command, flagName string) bool {
	if command.Flags().Lookup(flagName) == nil {
		return false
	}
	enabled, _ := command.Flags().GetBool(flagName)
	return enabled
}

func (builder *CommandBuilder) collectDescriptors(paths []string) ([]shared.RepoDescriptor, error) {
	var source RepositorySource
	if builder.RepositorySourceProvider != nil {
		openedSource, sourceError := builder.RepositorySourceProvider()
		if sourceError != nil {
			return nil, fmt.Errorf(repositorySourceErrorTemplateConstant, sourceError)
		}
		source = openedSource
	}

	if len(paths) == 0 {
		if source == nil {
			return nil, nil
		}
		trackedDescriptors, trackedError := source.TrackedDescriptors()
		if trackedError != nil {
			return nil, fmt.Errorf(repositorySourceErrorTemplateConstant, trackedError)
		}
		return trackedDescriptors, nil
	}

	descriptors := make([]shared.RepoDescriptor, 0, len(paths))
	for _, path := range paths {
		if source == nil {
			descriptors = append(descriptors, shared.RepoDescriptor{Path: path})
			continue
		}
		descriptor, describeError := source.DescribePath(path)
		if describeError != nil {
			return nil, fmt.Errorf(repositorySourceErrorTemplateConstant, describeError)
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolvePathSanitizer() *pathutils.RepositoryPathSanitizer {
	if builder.PathSanitizer != nil {
		return builder.PathSanitizer
	}
	return pathutils.NewRepositoryPathSanitizer()
}
