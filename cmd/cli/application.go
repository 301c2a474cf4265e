package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/execshell"
	"github.com/temirov/gitstat/internal/status"
	"github.com/temirov/gitstat/internal/tracking"
	"github.com/temirov/gitstat/internal/ui"
	"github.com/temirov/gitstat/internal/utils"
)

const (
	applicationNameConstant                 = "gitstat"
	applicationUseConstant                  = "gitstat [PATH...]"
	applicationShortDescriptionConstant     = "Show which git repositories have uncommitted, unpushed or unpulled work"
	applicationLongDescriptionConstant      = "gitstat checks many git repositories in parallel and lists the ones that need attention. Without a subcommand it runs check."
	defaultCommandNameConstant              = "check"
	helpCommandNameConstant                 = "help"
	helpFlagLongConstant                    = "--help"
	helpFlagShortConstant                   = "-h"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	toolsConfigurationKeyConstant           = "tools"
	statusConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".status"
	trackingConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".tracking"
	environmentPrefixConstant               = "GITSTAT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationDirectoryNameConstant  = "gitstat"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandStartedMessageConstant           = "gitstat command started"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for the status and tracking commands.
type ApplicationToolsConfiguration struct {
	Status   status.CommandConfiguration   `mapstructure:"status"`
	Tracking tracking.CommandConfiguration `mapstructure:"tracking"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	commandEventLogger    *ui.ConsoleCommandEventLogger
	diagnosticWriter      io.Writer
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a CLI application reading from stdin and writing the
// report to stdout and diagnostics to stderr.
func NewApplication(stdin io.Reader, stdout io.Writer, stderr io.Writer) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		diagnosticWriter:    stderr,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command, arguments)
		},
	}
	cobraCommand.CompletionOptions.DisableDefaultCmd = true
	cobraCommand.SetIn(stdin)
	cobraCommand.SetOut(stdout)
	cobraCommand.SetErr(stderr)
	cobraCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return utils.NewExitStatusError(status.ExitCodeConfigurationError, flagError)
	})
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	eventRelay := commandEventRelay{application: application}

	trackingBuilder := &tracking.CommandBuilder{
		LoggerProvider: tracking.LoggerProvider(loggerProvider),
		ConfigurationProvider: func() tracking.CommandConfiguration {
			return application.configuration.Tools.Tracking
		},
		CommandEventsObserver: eventRelay,
	}

	statusBuilder := status.CommandBuilder{
		LoggerProvider: status.LoggerProvider(loggerProvider),
		ConfigurationProvider: func() status.CommandConfiguration {
			return application.configuration.Tools.Status
		},
		RepositorySourceProvider: func() (status.RepositorySource, error) {
			trackingService, serviceError := trackingBuilder.OpenService(nil, nil)
			if serviceError != nil {
				return nil, serviceError
			}
			return trackingService, nil
		},
		PresenterFactory:      ui.NewReportPresenter,
		ProgressFactory:       ui.NewProgressObserver,
		CommandEventsObserver: eventRelay,
	}

	statusBuilders := []func() (*cobra.Command, error){statusBuilder.Build, statusBuilder.BuildFetch, statusBuilder.BuildPull}
	for _, build := range statusBuilders {
		statusCommand, statusBuildError := build()
		if statusBuildError == nil {
			cobraCommand.AddCommand(statusCommand)
		}
	}

	trackingCommands, trackingBuildError := trackingBuilder.Build()
	if trackingBuildError == nil {
		cobraCommand.AddCommand(trackingCommands...)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command hierarchy for arguments, falling back to check when no
// subcommand is named, and flushes the logger afterwards.
func (application *Application) Execute(executionContext context.Context, arguments []string) error {
	application.rootCommand.SetArgs(application.withDefaultCommand(arguments))
	executionError := application.rootCommand.ExecuteContext(executionContext)
	application.commandEventLogger.LogSummary()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// withDefaultCommand prefixes arguments with the check command unless they already name a subcommand or ask for help.
func (application *Application) withDefaultCommand(arguments []string) []string {
	if len(arguments) > 0 {
		switch arguments[0] {
		case helpCommandNameConstant, helpFlagLongConstant, helpFlagShortConstant:
			return arguments
		}
	}

	command, _, findError := application.rootCommand.Find(arguments)
	if findError == nil && command != application.rootCommand {
		return arguments
	}
	return append([]string{defaultCommandNameConstant}, arguments...)
}

func (application *Application) initializeConfiguration(command *cobra.Command, arguments []string) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range status.DefaultConfigurationValues(statusConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range tracking.DefaultConfigurationValues(trackingConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return utils.NewExitStatusError(status.ExitCodeConfigurationError, fmt.Errorf(configurationLoadErrorTemplateConstant, loadError))
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLoggerWithWriter(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		application.diagnosticWriter,
	)
	if loggerCreationError != nil {
		return utils.NewExitStatusError(status.ExitCodeConfigurationError, fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError))
	}

	application.logger = logger
	application.commandEventLogger = nil
	if application.humanReadableLoggingEnabled() {
		application.commandEventLogger = ui.NewConsoleCommandEventLogger(logger)
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	application.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// commandEventRelay forwards git command events to the console event logger configured for the current run.
type commandEventRelay struct {
	application *Application
}

func (relay commandEventRelay) CommandStarted(command execshell.ShellCommand) {
	relay.application.commandEventLogger.CommandStarted(command)
}

func (relay commandEventRelay) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	relay.application.commandEventLogger.CommandCompleted(command, result)
}

func (relay commandEventRelay) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	relay.application.commandEventLogger.CommandExecutionFailed(command, failure)
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant))
	}
	return searchPaths
}
