package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchdigest/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		t.Setenv(config.EnvConfigFile, "")
		t.Setenv(config.EnvOpenAIKey, "")

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("MATCHDIGEST_WINDOW_SECONDS", "30")
			t.Setenv("MATCHDIGEST_OVERLAP_SECONDS", "0.5")
			t.Setenv("MATCHDIGEST_RETRY_ATTEMPTS", "5")
			t.Setenv("MATCHDIGEST_BACKEND", "Simulated")
			t.Setenv("MATCHDIGEST_CLIP_FORMAT", ".wav")
			defer func() {
				for _, k := range []string{"WINDOW_SECONDS", "OVERLAP_SECONDS", "RETRY_ATTEMPTS", "BACKEND", "CLIP_FORMAT"} {
					_ = os.Unsetenv("MATCHDIGEST_" + k)
				}
			}()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WindowSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.OverlapSeconds, convey.ShouldEqual, 0.5)
				convey.So(cfg.RetryAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.Backend, convey.ShouldEqual, "simulated")
				convey.So(cfg.ClipFormat, convey.ShouldEqual, "wav")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "matchdigest.yaml")
			yamlContent := `
log_level: debug
narrative_model: gpt-4o
narrative_pacing: bucket
narrative_spacing_ms: 500
pacing_burst: 3
on_failure: placeholder
placeholder_text: "(no commentary)"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)

			convey.Convey("And the path is given explicitly", func() {
				cfg, err := config.Load(ctx, path)

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.NarrativeModel, convey.ShouldEqual, "gpt-4o")
				convey.So(cfg.NarrativePacing, convey.ShouldEqual, config.PacingBucket)
				convey.So(cfg.PacingBurst, convey.ShouldEqual, 3)
				convey.So(cfg.OnFailure, convey.ShouldEqual, "placeholder")
				convey.So(cfg.PlaceholderText, convey.ShouldEqual, "(no commentary)")
				convey.So(cfg.TranscriptionModel, convey.ShouldEqual, "whisper-1")
			})

			convey.Convey("And the path comes from the environment while env keys win", func() {
				t.Setenv(config.EnvConfigFile, path)
				t.Setenv("MATCHDIGEST_NARRATIVE_MODEL", "gpt-4-turbo")
				defer func() { _ = os.Unsetenv("MATCHDIGEST_NARRATIVE_MODEL") }()

				cfg, err := config.Load(ctx, "")

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.NarrativeModel, convey.ShouldEqual, "gpt-4-turbo")
			})
		})

		convey.Convey("When OPENAI_API_KEY is set", func() {
			t.Setenv(config.EnvOpenAIKey, "sk-fallback")

			convey.Convey("Then it fills the key", func() {
				cfg, err := config.Load(ctx, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-fallback")
			})

			convey.Convey("Then the namespaced key takes precedence", func() {
				t.Setenv("MATCHDIGEST_OPENAI_API_KEY", "sk-namespaced")
				defer func() { _ = os.Unsetenv("MATCHDIGEST_OPENAI_API_KEY") }()

				cfg, err := config.Load(ctx, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-namespaced")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			t.Setenv("MATCHDIGEST_RETRY_BACKOFF", "linear")
			defer func() { _ = os.Unsetenv("MATCHDIGEST_RETRY_BACKOFF") }()

			_, err := config.Load(ctx, "")

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
