package shared

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const reportLineTerminatorConstant = "\n"

// Reporter prints one notice line per call about a repository path.
type Reporter interface {
	Printf(format string, args ...any)
}

// lineReporter terminates every notice with a newline and keeps concurrent notices from interleaving.
type lineReporter struct {
	mutex  *sync.Mutex
	writer io.Writer
}

// NewWriterReporter constructs a Reporter writing to writer. A nil writer discards notices.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = io.Discard
	}
	return lineReporter{mutex: &sync.Mutex{}, writer: writer}
}

func (reporter lineReporter) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, reportLineTerminatorConstant) {
		line += reportLineTerminatorConstant
	}
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	_, _ = io.WriteString(reporter.writer, line)
}
