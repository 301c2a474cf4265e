package status_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
	"github.com/temirov/gitstat/internal/status"
)

func TestAggregatorOrdersByPathForAnyPermutation(testInstance *testing.T) {
	results := []status.StatusResult{
		{Path: "/srv/zeta", HasUpstream: true, HasUnstagedChanges: true},
		{Path: "/srv/alpha", HasUpstream: true, AheadCount: 1},
		{Path: "/home/me/beta", Failure: gitquery.NewRepositoryError(gitquery.ErrorKindTimeout, "")},
		{Path: "/srv/alpha-2", HasUpstream: true, BehindCount: 1, NeedsPull: true},
		{Path: "/opt/clean", HasUpstream: true},
	}
	expectedPaths := []string{"/home/me/beta", "/srv/alpha", "/srv/alpha-2", "/srv/zeta"}

	aggregator := status.NewAggregator()
	shuffler := rand.New(rand.NewSource(7))
	for iteration := 0; iteration < 20; iteration++ {
		permutation := make([]status.StatusResult, len(results))
		copy(permutation, results)
		shuffler.Shuffle(len(permutation), func(first int, second int) {
			permutation[first], permutation[second] = permutation[second], permutation[first]
		})

		report := aggregator.Reduce(permutation, status.RunConfiguration{})
		reportedPaths := make([]string, 0, len(report.Results))
		for _, result := range report.Results {
			reportedPaths = append(reportedPaths, result.Path)
		}
		require.Equal(testInstance, expectedPaths, reportedPaths)
		require.Equal(testInstance, status.ExitCodeFailures, report.ExitCode)
	}
}

func TestAggregatorFiltersAndExitCodes(testInstance *testing.T) {
	cleanResult := status.StatusResult{Path: "/r/clean", HasUpstream: true}
	changedResult := status.StatusResult{Path: "/r/changed", HasUpstream: true, UntrackedFiles: []string{"x"}}
	ignoredChangedResult := status.StatusResult{Repository: shared.RepoDescriptor{Path: "/r/ignored", Ignored: true}, Path: "/r/ignored", HasUpstream: true, HasUnstagedChanges: true}
	failedResult := status.StatusResult{Path: "/r/failed", Failure: gitquery.NewRepositoryError(gitquery.ErrorKindNotAGitRepository, "no .git entry in /r/failed")}
	pulledResult := status.StatusResult{Path: "/r/pulled", HasUpstream: true, Pull: status.PullCompleted}
	mismatchResult := status.StatusResult{Path: "/r/mismatch", HasUpstream: true, URLMismatch: true}

	testCases := []struct {
		name             string
		results          []status.StatusResult
		configuration    status.RunConfiguration
		expectedPaths    []string
		expectedExitCode int
	}{
		{
			name:             "empty",
			results:          nil,
			expectedPaths:    []string{},
			expectedExitCode: status.ExitCodeClean,
		},
		{
			name:             "clean_dropped",
			results:          []status.StatusResult{cleanResult},
			expectedPaths:    []string{},
			expectedExitCode: status.ExitCodeClean,
		},
		{
			name:             "clean_kept_with_up_to_date",
			results:          []status.StatusResult{cleanResult},
			configuration:    status.RunConfiguration{IncludeUpToDate: true},
			expectedPaths:    []string{"/r/clean"},
			expectedExitCode: status.ExitCodeClean,
		},
		{
			name:             "changes",
			results:          []status.StatusResult{cleanResult, changedResult},
			expectedPaths:    []string{"/r/changed"},
			expectedExitCode: status.ExitCodeChanges,
		},
		{
			name:             "mismatch_counts_as_change",
			results:          []status.StatusResult{mismatchResult},
			expectedPaths:    []string{"/r/mismatch"},
			expectedExitCode: status.ExitCodeChanges,
		},
		{
			name:             "ignored_dropped",
			results:          []status.StatusResult{ignoredChangedResult},
			expectedPaths:    []string{},
			expectedExitCode: status.ExitCodeClean,
		},
		{
			name:             "ignored_kept_when_included",
			results:          []status.StatusResult{ignoredChangedResult},
			configuration:    status.RunConfiguration{IncludeIgnored: true},
			expectedPaths:    []string{"/r/ignored"},
			expectedExitCode: status.ExitCodeChanges,
		},
		{
			name:             "failure_takes_precedence",
			results:          []status.StatusResult{changedResult, failedResult, cleanResult},
			expectedPaths:    []string{"/r/changed", "/r/failed"},
			expectedExitCode: status.ExitCodeFailures,
		},
		{
			name:             "completed_pull_reported_without_raising_exit_code",
			results:          []status.StatusResult{pulledResult},
			expectedPaths:    []string{"/r/pulled"},
			expectedExitCode: status.ExitCodeClean,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			report := status.NewAggregator().Reduce(testCase.results, testCase.configuration)
			reportedPaths := make([]string, 0, len(report.Results))
			for _, result := range report.Results {
				reportedPaths = append(reportedPaths, result.Path)
			}
			require.Equal(subTest, testCase.expectedPaths, reportedPaths)
			require.Equal(subTest, testCase.expectedExitCode, report.ExitCode)
		})
	}
}

func TestStatusResultPredicates(testInstance *testing.T) {
	require.True(testInstance, status.StatusResult{}.IsClean())
	require.False(testInstance, status.StatusResult{BehindCount: 1}.IsClean())
	require.True(testInstance, status.StatusResult{AheadCount: 1, BehindCount: 2}.Diverged())
	require.False(testInstance, status.StatusResult{AheadCount: 1}.Diverged())
	require.True(testInstance, status.StatusResult{UntrackedFiles: []string{"a"}}.HasLocalChanges())
	require.False(testInstance, status.StatusResult{Failure: gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, "")}.IsClean())
	require.True(testInstance, status.PullSkippedDiverged.Skipped())
	require.False(testInstance, status.PullCompleted.Skipped())
	require.False(testInstance, status.PullNotRequested.Skipped())
}
