package utils

import (
	"errors"
	"fmt"
)

const (
	exitStatusMessageTemplateConstant = "exit status %d"
)

// ExitStatusError carries the process exit code a command finished with. A nil Cause
// means the command already reported its outcome and only the code must propagate.
type ExitStatusError struct {
	Code  int
	Cause error
}

// NewExitStatusError constructs an ExitStatusError.
func NewExitStatusError(code int, cause error) ExitStatusError {
	return ExitStatusError{Code: code, Cause: cause}
}

// Error describes the cause, or the bare exit status when there is none.
func (exitStatusError ExitStatusError) Error() string {
	if exitStatusError.Cause == nil {
		return fmt.Sprintf(exitStatusMessageTemplateConstant, exitStatusError.Code)
	}
	return exitStatusError.Cause.Error()
}

// Unwrap exposes the cause.
func (exitStatusError ExitStatusError) Unwrap() error {
	return exitStatusError.Cause
}

// Silent reports whether the error carries nothing to print.
func (exitStatusError ExitStatusError) Silent() bool {
	return exitStatusError.Cause == nil
}

// ExitStatusFromError extracts an ExitStatusError from err's chain.
func ExitStatusFromError(err error) (ExitStatusError, bool) {
	var exitStatusError ExitStatusError
	if errors.As(err, &exitStatusError) {
		return exitStatusError, true
	}
	return ExitStatusError{}, false
}
