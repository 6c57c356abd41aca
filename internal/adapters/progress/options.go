package progress

import (
	"github.com/okian/matchdigest/pkg/logger"
)

// StreamOption applies a configuration option to the Stream.
type StreamOption func(*Stream)

// WithBufferSize sets how many events may wait for the reporter.
func WithBufferSize(size int) StreamOption {
	return func(s *Stream) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// ReporterOption applies a configuration option to the Reporter.
type ReporterOption func(*Reporter)

// WithPipeline sets the pipeline label used in logs and metrics.
func WithPipeline(name string) ReporterOption {
	return func(r *Reporter) {
		if name != "" {
			r.pipeline = name
		}
	}
}

// WithLogger sets a custom logger for the reporter.
func WithLogger(l logger.Logger) ReporterOption {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}
