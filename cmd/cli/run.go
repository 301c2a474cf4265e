package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/gitstat/internal/status"
	"github.com/temirov/gitstat/internal/utils"
)

const errorOutputTemplateConstant = "%v\n"

// Run executes the gitstat command line held in arguments, whose first element is the
// program name, and returns the process exit code. Interrupts stop scheduling new work.
func Run(arguments []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commandArguments := []string{}
	if len(arguments) > 1 {
		commandArguments = arguments[1:]
	}

	application := NewApplication(stdin, stdout, stderr)
	return exitCodeForError(application.Execute(executionContext, commandArguments), stderr)
}

func exitCodeForError(executionError error, stderr io.Writer) int {
	if executionError == nil {
		return status.ExitCodeClean
	}
	if exitStatus, isExitStatus := utils.ExitStatusFromError(executionError); isExitStatus {
		if !exitStatus.Silent() {
			fmt.Fprintf(stderr, errorOutputTemplateConstant, exitStatus.Cause)
		}
		return exitStatus.Code
	}
	fmt.Fprintf(stderr, errorOutputTemplateConstant, executionError)
	return status.ExitCodeFailures
}
