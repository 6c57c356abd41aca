package service

import (
	"fmt"
	"time"

	"github.com/okian/matchdigest/internal/adapters/audio"
	"github.com/okian/matchdigest/internal/adapters/inference"
	"github.com/okian/matchdigest/internal/config"
	"github.com/okian/matchdigest/internal/domain/enrich"
)

// FromConfig translates cfg into service options. The inference backend is
// built only when withBackend is set, so planning works without credentials.
func FromConfig(cfg *config.Config, withBackend bool) ([]Option, error) {
	opts := []Option{
		WithWindow(cfg.WindowSeconds, cfg.OverlapSeconds),
		WithNarrativePacer(pacer(cfg.NarrativePacing, cfg.NarrativeSpacingMS, cfg.PacingBurst)),
		WithTranscriptionPacer(pacer(cfg.TranscriptionPacing, cfg.TranscriptionSpacingMS, cfg.PacingBurst)),
		WithRetryPolicy(enrich.RetryPolicy{
			Attempts: cfg.RetryAttempts,
			Backoff:  enrich.BackoffKind(cfg.RetryBackoff),
			Initial:  ms(cfg.RetryInitialMS),
			Max:      ms(cfg.RetryMaxMS),
		}),
		WithFailurePolicy(enrich.FailurePolicy(cfg.OnFailure), cfg.PlaceholderText),
		WithCallTimeout(ms(cfg.RequestTimeoutMS)),
		WithProgressBuffer(cfg.ProgressBuffer),
		WithAudioTool(audio.New(
			audio.WithFFmpeg(cfg.FFmpegPath),
			audio.WithFFprobe(cfg.FFprobePath),
			audio.WithClipsDir(cfg.ClipsDir),
			audio.WithFormat(cfg.ClipFormat),
		)),
	}

	if withBackend {
		b, err := backend(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBackend(b))
	}
	return opts, nil
}

func backend(cfg *config.Config) (inference.Backend, error) {
	switch cfg.Backend {
	case inference.BackendSimulated:
		return inference.NewSimulated(
			inference.WithLatencyRange(ms(cfg.SimulatedLatencyMinMS), ms(cfg.SimulatedLatencyMaxMS)),
		), nil
	case inference.BackendOpenAI:
		return inference.NewOpenAI(cfg.OpenAIAPIKey,
			inference.WithBaseURL(cfg.OpenAIBaseURL),
			inference.WithNarrativeModel(cfg.NarrativeModel),
			inference.WithTranscriptionModel(cfg.TranscriptionModel),
			inference.WithTemperature(float32(cfg.NarrativeTemperature)),
		)
	default:
		return nil, fmt.Errorf("%w: %q", inference.ErrUnknownBackend, cfg.Backend)
	}
}

func pacer(mode string, spacingMS, burst int) enrich.Pacer {
	switch mode {
	case config.PacingFixed:
		return enrich.FixedSpacing(ms(spacingMS), nil, nil)
	case config.PacingBucket:
		return enrich.TokenBucket(ms(spacingMS), burst)
	default:
		return enrich.NoPacing()
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
