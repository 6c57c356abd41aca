package service

import (
	"time"

	"github.com/okian/matchdigest/internal/adapters/inference"
	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithNarrator sets the service that narrates possessions.
func WithNarrator(n inference.Narrator) Option {
	return func(s *Service) {
		if n != nil {
			s.narrator = n
		}
	}
}

// WithTranscriber sets the service that transcribes clips.
func WithTranscriber(t inference.Transcriber) Option {
	return func(s *Service) {
		if t != nil {
			s.transcriber = t
		}
	}
}

// WithBackend sets both the narrator and the transcriber.
func WithBackend(b inference.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.narrator = b
			s.transcriber = b
		}
	}
}

// WithAudioTool sets the clip materializer.
func WithAudioTool(a AudioTool) Option {
	return func(s *Service) {
		if a != nil {
			s.audio = a
		}
	}
}

// WithWindow sets the clip window and pre-roll in seconds.
func WithWindow(windowSeconds, overlapSeconds float64) Option {
	return func(s *Service) {
		s.windowSeconds = windowSeconds
		s.overlapSeconds = overlapSeconds
	}
}

// WithNarrativePacer paces narrative calls.
func WithNarrativePacer(p enrich.Pacer) Option {
	return func(s *Service) {
		if p != nil {
			s.narrativePacer = p
		}
	}
}

// WithTranscriptionPacer paces transcription calls.
func WithTranscriptionPacer(p enrich.Pacer) Option {
	return func(s *Service) {
		if p != nil {
			s.transcriptionPacer = p
		}
	}
}

// WithRetryPolicy sets the per-unit retry policy.
func WithRetryPolicy(p enrich.RetryPolicy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

// WithFailurePolicy sets what happens once a unit exhausts its retries.
func WithFailurePolicy(p enrich.FailurePolicy, placeholder string) Option {
	return func(s *Service) {
		s.failure = p
		if placeholder != "" {
			s.placeholder = placeholder
		}
	}
}

// WithCallTimeout bounds every single service call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithSleeper replaces the retry sleeper, mainly for tests.
func WithSleeper(sleep enrich.Sleeper) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithProgressBuffer sets how many progress events may queue for the reporter.
func WithProgressBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.progressBuffer = n
		}
	}
}

// WithRunIDs replaces run id generation, mainly for tests.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
