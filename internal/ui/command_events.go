package ui

import (
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/execshell"
)

const (
	gitActivitySummaryMessageConstant = "git activity"
	logFieldCommandsConstant          = "commands"
	logFieldRepositoriesConstant      = "repositories"
	logFieldNonZeroExitsConstant      = "non_zero_exits"
	logFieldExecutionFailuresConstant = "execution_failures"
	logFieldExitCodeConstant          = "exit_code"
)

// ConsoleCommandEventLogger narrates git invocations in human-readable form and tallies them
// per repository. Status queries run concurrently, so every method is safe for parallel use.
// Non-zero exits are answers for several status queries and are logged at debug.
type ConsoleCommandEventLogger struct {
	logger            *zap.Logger
	formatter         execshell.CommandMessageFormatter
	mutex             sync.Mutex
	commandsByPath    map[string]int
	nonZeroExits      int
	executionFailures int
}

// NewConsoleCommandEventLogger constructs a console event logger backed by logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, commandsByPath: make(map[string]int)}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.mutex.Lock()
	eventLogger.commandsByPath[command.Details.WorkingDirectory]++
	eventLogger.mutex.Unlock()
	eventLogger.logger.Debug(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Debug(eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.mutex.Lock()
	eventLogger.nonZeroExits++
	eventLogger.mutex.Unlock()
	eventLogger.logger.Debug(eventLogger.formatter.BuildFailureMessage(command, result), zap.Int(logFieldExitCodeConstant, result.ExitCode))
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.mutex.Lock()
	eventLogger.executionFailures++
	eventLogger.mutex.Unlock()
	eventLogger.logger.Warn(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}

// LogSummary reports how many git commands ran and in how many repositories. Nothing is
// logged when no command ran.
func (eventLogger *ConsoleCommandEventLogger) LogSummary() {
	if eventLogger == nil {
		return
	}
	eventLogger.mutex.Lock()
	defer eventLogger.mutex.Unlock()

	totalCommands := 0
	for _, commandCount := range eventLogger.commandsByPath {
		totalCommands += commandCount
	}
	if totalCommands == 0 {
		return
	}
	eventLogger.logger.Debug(
		gitActivitySummaryMessageConstant,
		zap.Int(logFieldCommandsConstant, totalCommands),
		zap.Int(logFieldRepositoriesConstant, len(eventLogger.commandsByPath)),
		zap.Int(logFieldNonZeroExitsConstant, eventLogger.nonZeroExits),
		zap.Int(logFieldExecutionFailuresConstant, eventLogger.executionFailures),
	)
}
