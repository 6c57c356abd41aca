// Package config defines process configuration and its loading.
//
// Conventions:
// - Keys are flat snake_case, shared by the YAML file and MATCHDIGEST_* env vars.
// - New() returns the defaults; Load layers file and env on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Pacing modes.
const (
	PacingNone   = "none"
	PacingFixed  = "fixed"
	PacingBucket = "bucket"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Backend selects the inference service: openai or simulated.
	Backend       string `koanf:"backend"`
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	NarrativeModel       string  `koanf:"narrative_model"`
	TranscriptionModel   string  `koanf:"transcription_model"`
	NarrativeTemperature float64 `koanf:"narrative_temperature"`

	// RequestTimeoutMS bounds a single service call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// WindowSeconds and OverlapSeconds shape the clip plan.
	WindowSeconds  float64 `koanf:"window_seconds"`
	OverlapSeconds float64 `koanf:"overlap_seconds"`
	ClipFormat     string  `koanf:"clip_format"`
	ClipsDir       string  `koanf:"clips_dir"`
	FFmpegPath     string  `koanf:"ffmpeg_path"`
	FFprobePath    string  `koanf:"ffprobe_path"`

	// Pacing per pipeline: none, fixed or bucket.
	NarrativePacing        string `koanf:"narrative_pacing"`
	NarrativeSpacingMS     int    `koanf:"narrative_spacing_ms"`
	TranscriptionPacing    string `koanf:"transcription_pacing"`
	TranscriptionSpacingMS int    `koanf:"transcription_spacing_ms"`
	PacingBurst            int    `koanf:"pacing_burst"`

	// Retry policy applied to every unit.
	RetryAttempts  int    `koanf:"retry_attempts"`
	RetryBackoff   string `koanf:"retry_backoff"`
	RetryInitialMS int    `koanf:"retry_initial_ms"`
	RetryMaxMS     int    `koanf:"retry_max_ms"`

	// OnFailure is abort or placeholder.
	OnFailure       string `koanf:"on_failure"`
	PlaceholderText string `koanf:"placeholder_text"`

	ProgressBuffer int `koanf:"progress_buffer"`

	// MetricsAddr serves /metrics during a run when set.
	MetricsAddr string `koanf:"metrics_addr"`
	// MetricsTextfile receives a metrics dump at the end of a run when set.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// SimulatedLatencyMinMS and SimulatedLatencyMaxMS bound the simulated backend.
	SimulatedLatencyMinMS int `koanf:"simulated_latency_min_ms"`
	SimulatedLatencyMaxMS int `koanf:"simulated_latency_max_ms"`
}

// New creates a Config with defaults matching the reference scripts: gpt-4 at
// temperature 0.1, whisper-1, 60s windows with 1s pre-roll, transcription
// calls spaced 1.2s apart and three attempts 2s apart.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",

		Backend:              "openai",
		NarrativeModel:       "gpt-4",
		TranscriptionModel:   "whisper-1",
		NarrativeTemperature: 0.1,
		RequestTimeoutMS:     120_000,

		WindowSeconds:  60,
		OverlapSeconds: 1,
		ClipFormat:     "mp3",
		ClipsDir:       "clips",
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",

		NarrativePacing:        PacingNone,
		TranscriptionPacing:    PacingFixed,
		TranscriptionSpacingMS: 1200,
		PacingBurst:            1,

		RetryAttempts:  3,
		RetryBackoff:   "constant",
		RetryInitialMS: 2000,
		RetryMaxMS:     30_000,

		OnFailure:       "abort",
		PlaceholderText: "[unavailable]",

		ProgressBuffer: 256,

		SimulatedLatencyMinMS: 80,
		SimulatedLatencyMaxMS: 150,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{oneOf(c.LogFormat, "text", "json"), "log_format must be text or json"},
		{oneOf(c.Backend, "openai", "simulated"), "backend must be openai or simulated"},
		{c.NarrativeTemperature >= 0 && c.NarrativeTemperature <= 2, "narrative_temperature must be within [0, 2]"},
		{c.RequestTimeoutMS >= 0, "request_timeout_ms must not be negative"},
		{c.WindowSeconds > 0, "window_seconds must be positive"},
		{c.OverlapSeconds >= 0 && c.OverlapSeconds < c.WindowSeconds, "overlap_seconds must be within [0, window_seconds)"},
		{c.ClipFormat != "", "clip_format must not be empty"},
		{oneOf(c.NarrativePacing, PacingNone, PacingFixed, PacingBucket), "narrative_pacing must be none, fixed or bucket"},
		{oneOf(c.TranscriptionPacing, PacingNone, PacingFixed, PacingBucket), "transcription_pacing must be none, fixed or bucket"},
		{c.NarrativeSpacingMS >= 0 && c.TranscriptionSpacingMS >= 0, "pacing spacing must not be negative"},
		{c.PacingBurst >= 1, "pacing_burst must be at least 1"},
		{c.RetryAttempts >= 1, "retry_attempts must be at least 1"},
		{oneOf(c.RetryBackoff, "constant", "exponential"), "retry_backoff must be constant or exponential"},
		{c.RetryInitialMS >= 0 && c.RetryMaxMS >= 0, "retry delays must not be negative"},
		{oneOf(c.OnFailure, "abort", "placeholder"), "on_failure must be abort or placeholder"},
		{c.ProgressBuffer > 0, "progress_buffer must be positive"},
		{c.SimulatedLatencyMinMS >= 0 && c.SimulatedLatencyMaxMS >= c.SimulatedLatencyMinMS, "simulated latency range is invalid"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
