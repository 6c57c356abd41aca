package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/matchdigest/internal/adapters/artifact"
	service "github.com/okian/matchdigest/internal/app"
	"github.com/okian/matchdigest/internal/config"
	"github.com/okian/matchdigest/internal/sampledata"
	"github.com/okian/matchdigest/pkg/logger"
	"github.com/okian/matchdigest/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Default file names used when flags are omitted.
const (
	defaultEventsIn       = "data.json"
	defaultPossessionsOut = "data_modified.json"
	defaultAudioIn        = "audio.mp3"
	defaultTranscriptsOut = "transcripts.json"
)

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "matchdigest",
		Short:         "Narrate soccer possessions and transcribe match audio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log_level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "override log_format: text or json")

	root.AddCommand(
		c.possessionsCmd(),
		c.transcriptsCmd(),
		c.planCmd(),
		c.sampleCmd(),
	)
	return root
}

// setup loads configuration and re-initializes logging from it.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}
	if err := logger.InitWithConfig(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) service(withBackend bool) (*service.Service, error) {
	opts, err := service.FromConfig(c.cfg, withBackend)
	if err != nil {
		return nil, err
	}
	return service.New(append(opts, service.WithLogger(logger.Get()))...), nil
}

func (c *cli) possessionsCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "possessions",
		Short: "Group match events into possessions and narrate each one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(true)
			if err != nil {
				return err
			}
			return c.withMetrics(cmd.Context(), func(ctx context.Context) error {
				res, err := svc.DigestPossessions(ctx, in, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d possessions to %s\n", res.Units, out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in, "in", defaultEventsIn, "match events JSON")
	cmd.Flags().StringVar(&out, "out", defaultPossessionsOut, "narrated possessions JSON")
	return cmd
}

func (c *cli) transcriptsCmd() *cobra.Command {
	var (
		req         service.TranscribeRequest
		clipsDir    string
		duration    float64
		skipExtract bool
	)

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Split match audio into overlapping clips and transcribe each one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clipsDir != "" {
				c.cfg.ClipsDir = clipsDir
			}
			if cmd.Flags().Changed("duration") {
				req.Duration = &duration
			}
			req.SkipExtract = skipExtract

			svc, err := c.service(true)
			if err != nil {
				return err
			}
			return c.withMetrics(cmd.Context(), func(ctx context.Context) error {
				res, err := svc.TranscribeAudio(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transcripts to %s\n", res.Units, req.Out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Audio, "audio", defaultAudioIn, "match audio recording")
	cmd.Flags().StringVar(&req.Out, "out", defaultTranscriptsOut, "transcripts JSON")
	cmd.Flags().StringVar(&clipsDir, "clips-dir", "", "override clips_dir")
	cmd.Flags().Float64Var(&duration, "duration", 0, "recording length in seconds; probed when omitted")
	cmd.Flags().BoolVar(&skipExtract, "skip-extract", false, "reuse clips already in clips_dir")
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	var (
		audioPath string
		duration  float64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the clip plan for a recording without calling any service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(false)
			if err != nil {
				return err
			}

			total := duration
			if !cmd.Flags().Changed("duration") {
				if audioPath == "" {
					return errors.New("plan needs --duration or --audio")
				}
				tool, ok := svc.Audio()
				if !ok {
					return errors.New("no audio tool configured")
				}
				if total, err = tool.Probe(cmd.Context(), audioPath); err != nil {
					return err
				}
			}

			clips, err := svc.Plan(total)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, clip := range clips {
				start, end, ok := clip.Clamp(total)
				note := ""
				if !ok {
					note = " (empty)"
				}
				fmt.Fprintf(w, "%s\t%.3f\t%.3f%s\n", clip.FileName(c.cfg.ClipFormat), start, end, note)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&duration, "duration", 0, "recording length in seconds")
	cmd.Flags().StringVar(&audioPath, "audio", "", "probe this recording for its length")
	return cmd
}

func (c *cli) sampleCmd() *cobra.Command {
	var (
		out         string
		possessions int
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic match events file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events := sampledata.Generate(cmd.Context(),
				sampledata.WithPossessions(possessions),
				sampledata.WithSeed(seed),
			)
			if _, err := artifact.WriteJSON(out, events, artifact.PossessionsIndent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", len(events), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", defaultEventsIn, "events JSON to write")
	cmd.Flags().IntVar(&possessions, "possessions", 20, "number of possessions")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

// withMetrics serves /metrics while fn runs when metrics_addr is set and
// dumps the registry to metrics_textfile afterwards when that is set.
func (c *cli) withMetrics(ctx context.Context, fn func(context.Context) error) error {
	log := logger.Get()

	var srv *http.Server
	if c.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv = &http.Server{
			Addr:              c.cfg.MetricsAddr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", c.cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	runErr := fn(ctx)

	if c.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(c.cfg.MetricsTextfile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}
	return runErr
}
