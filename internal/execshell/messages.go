package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	flagPrefixConstant                      = "-"
)

const (
	gitFetchSubcommandNameConstant       = "fetch"
	gitPullSubcommandNameConstant        = "pull"
	gitUpdateIndexSubcommandNameConstant = "update-index"
	gitDiffFilesSubcommandNameConstant   = "diff-files"
	gitDiffSubcommandNameConstant        = "diff"
	gitLSFilesSubcommandNameConstant     = "ls-files"
	gitRevListSubcommandNameConstant     = "rev-list"
	gitConfigSubcommandNameConstant      = "config"
	gitFetchAllRemotesLabelConstant      = "all remotes"
)

// gitMessageTemplates groups the lifecycle messages of one git subcommand.
// Start, success and execution-failure templates receive the subject and the
// working directory; the failure template additionally receives the exit code
// and the standard error suffix.
type gitMessageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandMessageTemplates = map[string]gitMessageTemplates{
	gitFetchSubcommandNameConstant: {
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s (exit code %d%s)",
		executionFailure: "Unable to fetch from %s in %s: %s",
	},
	gitPullSubcommandNameConstant: {
		start:            "Pulling %s into %s",
		success:          "Pulled %s into %s",
		failure:          "Failed to pull %s into %s (exit code %d%s)",
		executionFailure: "Unable to pull %s into %s: %s",
	},
	gitUpdateIndexSubcommandNameConstant: {
		start:            "Refreshing %s in %s",
		success:          "Refreshed %s in %s",
		failure:          "Failed to refresh %s in %s (exit code %d%s)",
		executionFailure: "Unable to refresh %s in %s: %s",
	},
	gitDiffFilesSubcommandNameConstant: {
		start:            "Checking %s in %s",
		success:          "No %s in %s",
		failure:          "Detected %s in %s (exit code %d%s)",
		executionFailure: "Unable to check %s in %s: %s",
	},
	gitDiffSubcommandNameConstant: {
		start:            "Checking %s in %s",
		success:          "No %s in %s",
		failure:          "Detected %s in %s (exit code %d%s)",
		executionFailure: "Unable to check %s in %s: %s",
	},
	gitLSFilesSubcommandNameConstant: {
		start:            "Listing %s in %s",
		success:          "Listed %s in %s",
		failure:          "Failed to list %s in %s (exit code %d%s)",
		executionFailure: "Unable to list %s in %s: %s",
	},
	gitRevListSubcommandNameConstant: {
		start:            "Counting %s in %s",
		success:          "Counted %s in %s",
		failure:          "Failed to count %s in %s (exit code %d%s)",
		executionFailure: "Unable to count %s in %s: %s",
	},
	gitConfigSubcommandNameConstant: {
		start:            "Reading %s in %s",
		success:          "Read %s in %s",
		failure:          "Could not read %s in %s (exit code %d%s)",
		executionFailure: "Unable to read %s in %s: %s",
	},
}

var gitFixedSubjects = map[string]string{
	gitPullSubcommandNameConstant:        "upstream changes",
	gitUpdateIndexSubcommandNameConstant: "index stat information",
	gitDiffFilesSubcommandNameConstant:   "unstaged changes",
	gitDiffSubcommandNameConstant:        "staged changes",
	gitLSFilesSubcommandNameConstant:     "untracked files",
	gitRevListSubcommandNameConstant:     "commits ahead of and behind upstream",
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandGit {
		if message, described := formatter.describeGitMessage(command, result, failure, stage); described {
			return message
		}
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) (string, bool) {
	subcommand := formatter.argumentAtIndex(command.Details.Arguments, 0)
	templates, known := gitSubcommandMessageTemplates[subcommand]
	if !known {
		return emptyStringConstant, false
	}

	subject := formatter.describeGitSubject(subcommand, command.Details.Arguments)
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject, workingDirectory), true
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject, workingDirectory), true
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError)), true
	default:
		return fmt.Sprintf(templates.executionFailure, subject, workingDirectory, formatter.describeFailure(failure)), true
	}
}

func (formatter CommandMessageFormatter) describeGitSubject(subcommand string, arguments []string) string {
	switch subcommand {
	case gitFetchSubcommandNameConstant:
		remote := formatter.extractFirstNonFlagArgument(arguments[1:])
		if len(remote) == 0 {
			return gitFetchAllRemotesLabelConstant
		}
		return remote
	case gitConfigSubcommandNameConstant:
		return formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
	default:
		return gitFixedSubjects[subcommand]
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unknownFailureMessageConstant
	}
	return value
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}
