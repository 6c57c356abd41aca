// Package service wires the domain pipelines to their adapters and runs them
// end to end: read, partition, enrich, assemble, write.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchdigest/internal/adapters/artifact"
	"github.com/okian/matchdigest/internal/adapters/inference"
	"github.com/okian/matchdigest/internal/adapters/progress"
	"github.com/okian/matchdigest/internal/domain/assemble"
	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/internal/domain/grouping"
	"github.com/okian/matchdigest/internal/domain/model"
	"github.com/okian/matchdigest/internal/domain/segment"
	"github.com/okian/matchdigest/pkg/logger"
	"github.com/okian/matchdigest/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultProgressBuffer = 256
	reporterDrainTimeout  = 5 * time.Second
)

// ErrNoBackend is returned when a pipeline runs without its inference service.
var ErrNoBackend = errors.New("no inference backend configured")

// AudioTool probes recordings and materializes clips.
type AudioTool interface {
	Probe(ctx context.Context, path string) (float64, error)
	Extract(ctx context.Context, src string, clip model.ClipSpec, total float64) (string, bool, error)
	ClipPath(clip model.ClipSpec) string
	Format() string
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Units    int
	Bytes    int
	Elapsed  time.Duration
	Progress progress.Summary
}

// TranscribeRequest describes one transcription run.
type TranscribeRequest struct {
	Audio string
	Out   string
	// Duration skips probing when set.
	Duration *float64
	// SkipExtract reuses clips already present in the clips directory.
	SkipExtract bool
}

// Service runs the possession and transcript pipelines.
type Service struct {
	narrator    inference.Narrator
	transcriber inference.Transcriber
	audio       AudioTool

	windowSeconds  float64
	overlapSeconds float64

	narrativePacer     enrich.Pacer
	transcriptionPacer enrich.Pacer
	retry              enrich.RetryPolicy
	failure            enrich.FailurePolicy
	placeholder        string
	callTimeout        time.Duration
	sleep              enrich.Sleeper
	progressBuffer     int

	newRunID func() string
	logger   logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		windowSeconds:      segment.DefaultWindowSeconds,
		overlapSeconds:     segment.DefaultOverlapSeconds,
		narrativePacer:     enrich.NoPacing(),
		transcriptionPacer: enrich.NoPacing(),
		retry:              enrich.DefaultRetryPolicy(),
		failure:            enrich.FailAbort,
		placeholder:        enrich.DefaultPlaceholder,
		progressBuffer:     defaultProgressBuffer,
		newRunID:           uuid.NewString,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Audio returns the configured audio tool, if any.
func (s *Service) Audio() (AudioTool, bool) {
	return s.audio, s.audio != nil
}

// Plan returns the clip plan for a recording of totalSeconds.
func (s *Service) Plan(totalSeconds float64) ([]model.ClipSpec, error) {
	return segment.Plan(totalSeconds,
		segment.WithWindow(s.windowSeconds),
		segment.WithOverlap(s.overlapSeconds),
	)
}

// DigestPossessions groups the events in inPath into possessions, narrates
// each one and writes the narrated list to outPath. On any error nothing is
// written.
func (s *Service) DigestPossessions(ctx context.Context, inPath, outPath string) (res Result, err error) {
	if s.narrator == nil {
		return Result{}, ErrNoBackend
	}
	run := s.begin(ctx, metrics.PipelinePossessions)
	defer func() { run.end(ctx, &res, err) }()

	events, err := artifact.ReadEvents(inPath)
	if err != nil {
		return res, err
	}
	groups, err := grouping.Group(events)
	if err != nil {
		return res, err
	}
	res.Units = len(groups)
	metrics.RecordUnitsPlanned(metrics.PipelinePossessions, len(groups))
	run.log.Info(ctx, "possessions grouped",
		logger.Int("events", len(events)),
		logger.Int("possessions", len(groups)),
	)

	narrate := func(ctx context.Context, g model.PossessionGroup) (string, error) {
		return s.narrator.Narrate(ctx, g.Events)
	}
	narratives, summary, err := runEnrich(ctx, s, run, s.narrativePacer, narrate, groups)
	res.Progress = summary
	if err != nil {
		return res, err
	}

	records, err := assemble.Possessions(groups, narratives)
	if err != nil {
		return res, err
	}
	res.Bytes, err = artifact.WriteJSON(outPath, records, artifact.PossessionsIndent)
	if err != nil {
		return res, err
	}
	metrics.RecordArtifactBytes(metrics.PipelinePossessions, res.Bytes)
	return res, nil
}

// clipUnit is a planned clip together with its file on disk.
type clipUnit struct {
	model.ClipSpec
	path  string
	empty bool
}

// TranscribeAudio plans the recording into clips, materializes them,
// transcribes each one and writes the transcript list to req.Out. On any
// error nothing is written.
func (s *Service) TranscribeAudio(ctx context.Context, req TranscribeRequest) (res Result, err error) {
	if s.transcriber == nil || s.audio == nil {
		return Result{}, ErrNoBackend
	}
	run := s.begin(ctx, metrics.PipelineTranscripts)
	defer func() { run.end(ctx, &res, err) }()

	total, err := s.duration(ctx, req)
	if err != nil {
		return res, err
	}
	metrics.UpdateAudioDuration(total)

	clips, err := s.Plan(total)
	if err != nil {
		return res, err
	}
	res.Units = len(clips)
	metrics.RecordUnitsPlanned(metrics.PipelineTranscripts, len(clips))
	run.log.Info(ctx, "clips planned",
		logger.Float64("duration_seconds", total),
		logger.Int("clips", len(clips)),
	)

	units, err := s.materialize(ctx, run, req, clips, total)
	if err != nil {
		return res, err
	}

	transcribe := func(ctx context.Context, u clipUnit) (string, error) {
		if u.empty {
			return "", nil
		}
		return s.transcriber.Transcribe(ctx, u.path)
	}
	texts, summary, err := runEnrich(ctx, s, run, s.transcriptionPacer, transcribe, units)
	res.Progress = summary
	if err != nil {
		return res, err
	}

	records, err := assemble.Transcripts(clips, texts, s.windowSeconds, s.audio.Format())
	if err != nil {
		return res, err
	}
	res.Bytes, err = artifact.WriteJSON(req.Out, records, artifact.TranscriptsIndent)
	if err != nil {
		return res, err
	}
	metrics.RecordArtifactBytes(metrics.PipelineTranscripts, res.Bytes)
	return res, nil
}

func (s *Service) duration(ctx context.Context, req TranscribeRequest) (float64, error) {
	if req.Duration != nil {
		return *req.Duration, nil
	}
	return s.audio.Probe(ctx, req.Audio)
}

// materialize writes every non-empty clip to disk before any service call.
func (s *Service) materialize(ctx context.Context, run *runState, req TranscribeRequest, clips []model.ClipSpec, total float64) ([]clipUnit, error) {
	units := make([]clipUnit, len(clips))
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		units[i].ClipSpec = clip

		if req.SkipExtract {
			_, _, ok := clip.Clamp(total)
			units[i].path = s.audio.ClipPath(clip)
			units[i].empty = !ok
			continue
		}

		path, ok, err := s.audio.Extract(ctx, req.Audio, clip, total)
		if err != nil {
			return nil, err
		}
		units[i].path = path
		units[i].empty = !ok
		if !ok {
			run.log.Info(ctx, "clip is empty, skipping", logger.Int("clip", clip.Index))
		}
	}
	return units, nil
}

// runState carries per-run identity.
type runState struct {
	id       string
	pipeline string
	started  time.Time
	log      logger.Logger
}

func (s *Service) begin(ctx context.Context, pipeline string) *runState {
	l := s.logger
	if l == nil {
		l = logger.Get()
	}
	run := &runState{id: s.newRunID(), pipeline: pipeline, started: time.Now()}
	run.log = l.Named(pipeline).With(logger.String("run_id", run.id))
	run.log.Info(ctx, "run started")
	return run
}

func (r *runState) end(ctx context.Context, res *Result, err error) {
	res.RunID = r.id
	res.Elapsed = time.Since(r.started)

	status := metrics.StatusOK
	switch {
	case err == nil:
		r.log.Info(ctx, "run finished",
			logger.Int("units", res.Units),
			logger.Int("bytes", res.Bytes),
			logger.Duration("elapsed", res.Elapsed),
		)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = metrics.StatusAborted
		r.log.Warn(context.WithoutCancel(ctx), "run aborted", logger.Error(err))
	default:
		status = metrics.StatusFailed
		r.log.Error(ctx, "run failed", logger.Error(err))
	}
	metrics.RecordRunDuration(r.pipeline, status, float64(res.Elapsed.Milliseconds()))
}

// runEnrich drives one orchestrator pass with a progress stream attached.
func runEnrich[U enrich.Unit](ctx context.Context, s *Service, run *runState, pacer enrich.Pacer, call enrich.CallFunc[U], units []U) ([]string, progress.Summary, error) {
	stream := progress.NewStream(progress.WithBufferSize(s.progressBuffer))
	reporter := progress.NewReporter(stream,
		progress.WithPipeline(run.pipeline),
		progress.WithLogger(run.log),
	)
	go reporter.Run(ctx)

	opts := []enrich.Option{
		enrich.WithPacer(pacer),
		enrich.WithRetryPolicy(s.retry),
		enrich.WithObserver(stream),
		enrich.WithFailurePolicy(s.failure, s.placeholder),
		enrich.WithCallTimeout(s.callTimeout),
		enrich.WithSleeper(s.sleep),
	}
	out, err := enrich.New(call, opts...).Enrich(ctx, units)

	_ = stream.Close()
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reporterDrainTimeout)
	defer cancel()
	if shutdownErr := reporter.Shutdown(drainCtx); shutdownErr != nil {
		run.log.Warn(drainCtx, "progress reporter did not drain", logger.Error(shutdownErr))
	}
	if dropped := stream.Dropped(); dropped > 0 {
		run.log.Warn(drainCtx, "progress events dropped", logger.Int("dropped", int(dropped)))
	}

	return out, reporter.Summary(), err
}
