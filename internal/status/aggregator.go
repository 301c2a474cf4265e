package status

import "sort"

// Aggregator filters, orders and reduces classification results into a Report.
type Aggregator struct{}

// NewAggregator constructs an Aggregator.
func NewAggregator() Aggregator {
	return Aggregator{}
}

// Reduce keeps the results worth reporting, sorts them by path and computes the exit code.
// Clean results are kept when IncludeUpToDate is set or when a pull completed for them.
func (Aggregator) Reduce(results []StatusResult, configuration RunConfiguration) Report {
	retained := make([]StatusResult, 0, len(results))
	for _, result := range results {
		if result.Repository.Ignored && !configuration.IncludeIgnored {
			continue
		}
		if result.IsClean() && !configuration.IncludeUpToDate && result.Pull != PullCompleted {
			continue
		}
		retained = append(retained, result)
	}

	sort.SliceStable(retained, func(first int, second int) bool {
		return retained[first].Path < retained[second].Path
	})

	return Report{Results: retained, ExitCode: computeExitCode(retained)}
}

func computeExitCode(results []StatusResult) int {
	exitCode := ExitCodeClean
	for _, result := range results {
		if result.Failure != nil {
			return ExitCodeFailures
		}
		if !result.IsClean() {
			exitCode = ExitCodeChanges
		}
	}
	return exitCode
}
