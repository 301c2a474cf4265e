package status

import (
	"errors"
	"time"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
)

const (
	workerCountInvalidMessageConstant = "worker count must be at least 1"
	taskTimeoutInvalidMessageConstant = "per-repository timeout must be positive"
)

// Process exit codes reported for a run.
const (
	ExitCodeClean              = 0
	ExitCodeChanges            = 1
	ExitCodeFailures           = 2
	ExitCodeConfigurationError = 3
)

// ErrWorkerCountInvalid indicates a run configured with fewer than one worker.
var ErrWorkerCountInvalid = errors.New(workerCountInvalidMessageConstant)

// ErrTaskTimeoutInvalid indicates a run configured with a non-positive per-repository timeout.
var ErrTaskTimeoutInvalid = errors.New(taskTimeoutInvalidMessageConstant)

// IsConfigurationError reports whether err stems from an invalid run configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrWorkerCountInvalid) || errors.Is(err, ErrTaskTimeoutInvalid)
}

// PullOutcome records what happened to a requested pull.
type PullOutcome string

// Supported pull outcomes.
const (
	PullNotRequested        PullOutcome = ""
	PullCompleted           PullOutcome = "pulled"
	PullSkippedLocalChanges PullOutcome = "skipped: local changes"
	PullSkippedDiverged     PullOutcome = "skipped: diverged"
	PullSkippedUpToDate     PullOutcome = "skipped: up to date"
	PullSkippedNoUpstream   PullOutcome = "skipped: no upstream"
)

// Skipped reports whether the pull was requested but not attempted.
func (outcome PullOutcome) Skipped() bool {
	switch outcome {
	case PullSkippedLocalChanges, PullSkippedDiverged, PullSkippedUpToDate, PullSkippedNoUpstream:
		return true
	default:
		return false
	}
}

// StatusResult is the classified state of one repository. When Failure is set
// every other status field holds its zero value.
type StatusResult struct {
	Repository                 shared.RepoDescriptor
	Path                       string
	HasUnstagedChanges         bool
	HasUncommittedIndexChanges bool
	UntrackedFiles             []string
	AheadCount                 int
	BehindCount                int
	HasUpstream                bool
	NeedsPull                  bool
	ActualUpstreamURL          string
	URLMismatch                bool
	Pull                       PullOutcome
	Failure                    *gitquery.RepositoryError
}

// HasLocalChanges reports unstaged, staged or untracked changes.
func (result StatusResult) HasLocalChanges() bool {
	return result.HasUnstagedChanges || result.HasUncommittedIndexChanges || len(result.UntrackedFiles) > 0
}

// Diverged reports a branch that is both ahead of and behind its upstream.
func (result StatusResult) Diverged() bool {
	return result.AheadCount > 0 && result.BehindCount > 0
}

// IsClean reports a repository with no changes, no pending pull or push, no URL mismatch and no failure.
func (result StatusResult) IsClean() bool {
	if result.Failure != nil {
		return false
	}
	return !result.HasLocalChanges() && result.AheadCount == 0 && result.BehindCount == 0 && !result.URLMismatch
}

func computeNeedsPull(result StatusResult) bool {
	return !result.HasUnstagedChanges && !result.HasUncommittedIndexChanges && result.BehindCount > 0
}

func failureResult(descriptor shared.RepoDescriptor, path string, failure *gitquery.RepositoryError) StatusResult {
	return StatusResult{Repository: descriptor, Path: path, Failure: failure}
}

// RunConfiguration controls one status run. It is read-only once scheduling starts.
type RunConfiguration struct {
	IncludeIgnored  bool
	IncludeUpToDate bool
	DoFetch         bool
	DoPull          bool
	WorkerCount     int
	PerTaskTimeout  time.Duration
	QueryTimeout    time.Duration
	RemoteName      string
	RefreshIndex    bool
}

// Validate rejects configurations that cannot be scheduled.
func (configuration RunConfiguration) Validate() error {
	if configuration.WorkerCount < 1 {
		return ErrWorkerCountInvalid
	}
	if configuration.PerTaskTimeout <= 0 {
		return ErrTaskTimeoutInvalid
	}
	return nil
}

// Report is the filtered, path ordered outcome of a run.
type Report struct {
	Results  []StatusResult
	ExitCode int
}
