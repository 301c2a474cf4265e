package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/temirov/gitstat/internal/status"
)

const (
	labelUnstagedChangesConstant     = "unstaged changes"
	labelUncommittedChangesConstant  = "uncommitted changes"
	labelUntrackedFilesConstant      = "untracked files"
	labelUnpushedCommitsConstant     = "unpushed commits"
	labelPullRequiredConstant        = "pull required"
	labelBehindUpstreamConstant      = "behind upstream"
	labelDivergedConstant            = "DIVERGED"
	labelNoUpstreamConstant          = "no upstream branch"
	labelURLMismatchConstant         = "URL mismatch"
	labelUpToDateConstant            = "up to date"
	labelPulledConstant              = "pulled"
	labelPullSkippedTemplateConstant = "pull skipped (%s)"
	labelErrorTemplateConstant       = "error: %s"
	labelErrorDetailTemplateConstant = "error: %s: %s"
	labelSeparatorConstant           = ", "
	reportLineTemplateConstant       = "%-*s  %s\n"
	skippedOutcomePrefixConstant     = "skipped: "
)

type reportPalette struct {
	changes  *color.Color
	problem  *color.Color
	unpushed *color.Color
	healthy  *color.Color
}

func newReportPalette(colorEnabled bool) reportPalette {
	palette := reportPalette{
		changes:  color.New(color.FgYellow),
		problem:  color.New(color.FgRed),
		unpushed: color.New(color.FgCyan),
		healthy:  color.New(color.FgGreen),
	}
	if !colorEnabled {
		for _, paletteColor := range []*color.Color{palette.changes, palette.problem, palette.unpushed, palette.healthy} {
			paletteColor.DisableColor()
		}
	}
	return palette
}

// ReportRenderer writes one aligned line per reported repository.
type ReportRenderer struct {
	writer  io.Writer
	palette reportPalette
}

// NewReportRenderer constructs a renderer. With colorEnabled the terminal detection
// of fatih/color still applies, so redirected output stays plain.
func NewReportRenderer(writer io.Writer, colorEnabled bool) *ReportRenderer {
	if writer == nil {
		writer = io.Discard
	}
	return &ReportRenderer{writer: writer, palette: newReportPalette(colorEnabled)}
}

// NewReportPresenter adapts NewReportRenderer to status.ReportPresenterFactory.
func NewReportPresenter(writer io.Writer, colorEnabled bool) status.ReportPresenter {
	return NewReportRenderer(writer, colorEnabled)
}

// Present implements status.ReportPresenter.
func (renderer *ReportRenderer) Present(report status.Report) error {
	pathWidth := 0
	for _, result := range report.Results {
		if len(result.Path) > pathWidth {
			pathWidth = len(result.Path)
		}
	}

	for _, result := range report.Results {
		line := strings.Join(renderer.describe(result), labelSeparatorConstant)
		if _, writeError := fmt.Fprintf(renderer.writer, reportLineTemplateConstant, pathWidth, result.Path, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (renderer *ReportRenderer) describe(result status.StatusResult) []string {
	if result.Failure != nil {
		if len(result.Failure.Diagnostic) == 0 {
			return []string{renderer.palette.problem.Sprintf(labelErrorTemplateConstant, result.Failure.Kind)}
		}
		return []string{renderer.palette.problem.Sprintf(labelErrorDetailTemplateConstant, result.Failure.Kind, result.Failure.Diagnostic)}
	}

	labels := make([]string, 0, 4)
	if result.HasUnstagedChanges {
		labels = append(labels, renderer.palette.changes.Sprint(labelUnstagedChangesConstant))
	}
	if result.HasUncommittedIndexChanges {
		labels = append(labels, renderer.palette.changes.Sprint(labelUncommittedChangesConstant))
	}
	if len(result.UntrackedFiles) > 0 {
		labels = append(labels, renderer.palette.problem.Sprint(labelUntrackedFilesConstant))
	}
	switch {
	case result.Diverged():
		labels = append(labels, renderer.palette.problem.Sprint(labelDivergedConstant))
	case result.AheadCount > 0:
		labels = append(labels, renderer.palette.unpushed.Sprint(labelUnpushedCommitsConstant))
	case result.NeedsPull:
		labels = append(labels, renderer.palette.healthy.Sprint(labelPullRequiredConstant))
	case result.BehindCount > 0:
		labels = append(labels, renderer.palette.changes.Sprint(labelBehindUpstreamConstant))
	}
	if !result.HasUpstream {
		labels = append(labels, renderer.palette.problem.Sprint(labelNoUpstreamConstant))
	}
	if result.URLMismatch {
		labels = append(labels, renderer.palette.problem.Sprint(labelURLMismatchConstant))
	}

	switch result.Pull {
	case status.PullCompleted:
		labels = append(labels, renderer.palette.healthy.Sprint(labelPulledConstant))
	case status.PullSkippedLocalChanges, status.PullSkippedDiverged:
		reason := strings.TrimPrefix(string(result.Pull), skippedOutcomePrefixConstant)
		labels = append(labels, renderer.palette.changes.Sprintf(labelPullSkippedTemplateConstant, reason))
	}

	if len(labels) == 0 {
		labels = append(labels, renderer.palette.healthy.Sprint(labelUpToDateConstant))
	}
	return labels
}
