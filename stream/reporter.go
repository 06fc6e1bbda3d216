package stream

import (
	"sync/atomic"

	"github.com/RyanBlaney/sonido-glow/logging"
)

// Reporter receives errors that caused a tick to be skipped. It is called on
// the tick goroutine and must not block.
type Reporter interface {
	ReportSkippedTick(err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error)

func (f ReporterFunc) ReportSkippedTick(err error) {
	f(err)
}

// LogReporter logs skipped ticks, sampling after the first so a persistent
// mismatch does not flood the log at block rate.
type LogReporter struct {
	logger logging.Logger
	every  uint64
	count  atomic.Uint64
}

// NewLogReporter logs the first skipped tick and then one in every.
func NewLogReporter(logger logging.Logger, every uint64) *LogReporter {
	if every == 0 {
		every = 1
	}
	return &LogReporter{logger: logger, every: every}
}

func (r *LogReporter) ReportSkippedTick(err error) {
	n := r.count.Add(1)
	if n != 1 && n%r.every != 0 {
		return
	}
	r.logger.Warn("Skipping tick", logging.Fields{
		"error":   err.Error(),
		"skipped": n,
	})
}
