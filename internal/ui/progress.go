package ui

import (
	"fmt"
	"io"

	"github.com/temirov/gitstat/internal/status"
)

const (
	progressLineTemplateConstant = "\rchecked %d/%d repositories"
	progressDoneSuffixConstant   = "\n"
)

// ProgressReporter prints a single self-overwriting progress line.
type ProgressReporter struct {
	writer io.Writer
}

// NewProgressReporter constructs a ProgressReporter writing to writer.
func NewProgressReporter(writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{writer: writer}
}

// NewProgressObserver adapts NewProgressReporter to status.ProgressObserverFactory.
func NewProgressObserver(writer io.Writer) status.ProgressObserver {
	return NewProgressReporter(writer)
}

// TaskCompleted implements status.ProgressObserver. The scheduler serializes calls.
func (reporter *ProgressReporter) TaskCompleted(completed int, total int) {
	fmt.Fprintf(reporter.writer, progressLineTemplateConstant, completed, total)
	if completed >= total {
		fmt.Fprint(reporter.writer, progressDoneSuffixConstant)
	}
}
