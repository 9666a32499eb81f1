package shared

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reporter emits formatted progress lines to an underlying sink.
// Implementations must tolerate calls from concurrent batch tasks.
type Reporter interface {
	Printf(format string, args ...any)
}

type writerReporter struct {
	writer io.Writer
	mutex  *sync.Mutex
}

// NewWriterReporter constructs a Reporter that writes whole lines to the provided io.Writer.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return writerReporter{writer: writer, mutex: &sync.Mutex{}}
}

func (reporter writerReporter) Printf(format string, args ...any) {
	formatted := fmt.Sprintf(format, args...)
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	_, _ = io.WriteString(reporter.writer, formatted)
}
