package tracking

import (
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
	trackUseConstant                       = "track PATH..."
	trackShortDescriptionConstant          = "Track repositories"
	trackLongDescriptionConstant           = "track records each repository root together with its remote URL so check, fetch and pull can find it without arguments."
	untrackUseConstant                     = "untrack PATH..."
	untrackShortDescriptionConstant        = "Stop tracking repositories"
	ignoreUseConstant                      = "ignore PATH..."
	ignoreShortDescriptionConstant         = "Keep tracked repositories out of check, fetch and pull"
	unignoreUseConstant                    = "unignore PATH..."
	unignoreShortDescriptionConstant       = "Include previously ignored repositories again"
	isTrackedUseConstant                   = "is-tracked PATH..."
	isTrackedShortDescriptionConstant      = "Show whether repositories are tracked"
	isTrackedLongDescriptionConstant       = "is-tracked reports the tracking state of every path and exits with 1 when any of them is not tracked."
	showCloneUseConstant                   = "showclone"
	showCloneShortDescriptionConstant      = "Print git clone commands for tracked repositories missing on disk"
	flagRecursiveNameConstant              = "recursive"
	flagRecursiveShorthandConstant         = "r"
	flagRecursiveDescriptionConstant       = "Track every repository found beneath each path"
	flagQuietIfTrackedNameConstant         = "quiet-if-tracked"
	flagQuietIfTrackedShorthandConstant    = "q"
	flagQuietIfTrackedDescriptionConstant  = "Print nothing for tracked paths"
	flagIncludeExistingNameConstant        = "include-existing"
	flagIncludeExistingDescriptionConstant = "Include repositories that already exist"
	flagIncludeIgnoredNameConstant         = "include-ignored"
	flagIncludeIgnoredDescriptionConstant  = "Include ignored repositories"
	notAllTrackedExitCodeConstant          = 1
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the persisted tracking configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the tracking commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitExecutor           shared.GitExecutor
	FileSystem            shared.FileSystem
	Resolver              shared.RepositoryPathResolver
	Discoverer            shared.RepositoryDiscoverer
	HomeExpander          *pathutils.HomeExpander
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs every tracking command.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	trackCommand := &cobra.Command{
		Use:   trackUseConstant,
		Short: trackShortDescriptionConstant,
		Long:  trackLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runTrack,
	}
	trackCommand.Flags().BoolP(flagRecursiveNameConstant, flagRecursiveShorthandConstant, false, flagRecursiveDescriptionConstant)

	untrackCommand := &cobra.Command{
		Use:   untrackUseConstant,
		Short: untrackShortDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runUntrack,
	}

	ignoreCommand := &cobra.Command{
		Use:   ignoreUseConstant,
		Short: ignoreShortDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runSetIgnored(command, arguments, true)
		},
	}

	unignoreCommand := &cobra.Command{
		Use:   unignoreUseConstant,
		Short: unignoreShortDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runSetIgnored(command, arguments, false)
		},
	}

	isTrackedCommand := &cobra.Command{
		Use:   isTrackedUseConstant,
		Short: isTrackedShortDescriptionConstant,
		Long:  isTrackedLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.runIsTracked,
	}
	isTrackedCommand.Flags().BoolP(flagQuietIfTrackedNameConstant, flagQuietIfTrackedShorthandConstant, false, flagQuietIfTrackedDescriptionConstant)

	showCloneCommand := &cobra.Command{
		Use:   showCloneUseConstant,
		Short: showCloneShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runShowClone,
	}
	showCloneCommand.Flags().Bool(flagIncludeExistingNameConstant, false, flagIncludeExistingDescriptionConstant)
	showCloneCommand.Flags().Bool(flagIncludeIgnoredNameConstant, false, flagIncludeIgnoredDescriptionConstant)

	return []*cobra.Command{trackCommand, untrackCommand, ignoreCommand, unignoreCommand, isTrackedCommand, showCloneCommand}, nil
}

// OpenService opens the configured store and returns a service reporting to the given writers.
func (builder *CommandBuilder) OpenService(output io.Writer, errorOutput io.Writer) (*Service, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	storePath, storePathError := ResolveStorePath(configuration.File, builder.HomeExpander)
	if storePathError != nil {
		return nil, storePathError
	}

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	store, storeError := NewStore(storePath, fileSystem)
	if storeError != nil {
		return nil, storeError
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
	if executorError != nil {
		return nil, executorError
	}

	return NewService(Dependencies{
		Store:        store,
		GitExecutor:  gitExecutor,
		FileSystem:   fileSystem,
		Resolver:     builder.Resolver,
		Discoverer:   builder.Discoverer,
		HomeExpander: builder.HomeExpander,
		RemoteName:   configuration.RemoteName,
		Output:       output,
		Errors:       errorOutput,
		Logger:       logger,
	})
}

func (builder *CommandBuilder) runTrack(command *cobra.Command, arguments []string) error {
	recursive, _ := command.Flags().GetBool(flagRecursiveNameConstant)
	service, serviceError := builder.OpenService(command.OutOrStdout(), command.ErrOrStderr())
	if serviceError != nil {
		return serviceError
	}
	return service.Track(command.Context(), arguments, recursive)
}

func (builder *CommandBuilder) runUntrack(command *cobra.Command, arguments []string) error {
	service, serviceError := builder.OpenService(command.OutOrStdout(), command.ErrOrStderr())
	if serviceError != nil {
		return serviceError
	}
	return service.Untrack(arguments)
}

func (builder *CommandBuilder) runSetIgnored(command *cobra.Command, arguments []string, ignored bool) error {
	service, serviceError := builder.OpenService(command.OutOrStdout(), command.ErrOrStderr())
	if serviceError != nil {
		return serviceError
	}
	return service.SetIgnored(arguments, ignored)
}

func (builder *CommandBuilder) runIsTracked(command *cobra.Command, arguments []string) error {
	quietIfTracked, _ := command.Flags().GetBool(flagQuietIfTrackedNameConstant)
	service, serviceError := builder.OpenService(command.OutOrStdout(), command.ErrOrStderr())
	if serviceError != nil {
		return serviceError
	}
	allTracked, trackedError := service.IsTracked(arguments, quietIfTracked)
	if trackedError != nil {
		return trackedError
	}
	if !allTracked {
		return utils.NewExitStatusError(notAllTrackedExitCodeConstant, nil)
	}
	return nil
}

func (builder *CommandBuilder) runShowClone(command *cobra.Command, arguments []string) error {
	includeExisting, _ := command.Flags().GetBool(flagIncludeExistingNameConstant)
	includeIgnored, _ := command.Flags().GetBool(flagIncludeIgnoredNameConstant)
	service, serviceError := builder.OpenService(command.OutOrStdout(), command.ErrOrStderr())
	if serviceError != nil {
		return serviceError
	}
	return service.ShowClone(includeExisting, includeIgnored)
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

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
