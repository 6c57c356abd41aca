// Package audio probes recordings and cuts them into clip files with the
// ffmpeg tool suite.
package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/matchdigest/internal/adapters/artifact"
	"github.com/okian/matchdigest/internal/domain/model"
	"github.com/okian/matchdigest/pkg/metrics"
)

// Default tool locations and output directory.
const (
	DefaultFFmpeg   = "ffmpeg"
	DefaultFFprobe  = "ffprobe"
	DefaultClipsDir = "clips"
)

// ErrBadDuration is returned when ffprobe output is not a duration.
var ErrBadDuration = errors.New("unreadable audio duration")

// Option applies a configuration option to the Tool.
type Option func(*Tool)

// WithFFmpeg sets the ffmpeg binary.
func WithFFmpeg(path string) Option {
	return func(t *Tool) {
		if path != "" {
			t.ffmpeg = path
		}
	}
}

// WithFFprobe sets the ffprobe binary.
func WithFFprobe(path string) Option {
	return func(t *Tool) {
		if path != "" {
			t.ffprobe = path
		}
	}
}

// WithClipsDir sets the directory clips are written to.
func WithClipsDir(dir string) Option {
	return func(t *Tool) {
		if dir != "" {
			t.clipsDir = dir
		}
	}
}

// WithFormat sets the clip container, which is also the file extension.
func WithFormat(format string) Option {
	return func(t *Tool) {
		if format != "" {
			t.format = strings.TrimPrefix(format, ".")
		}
	}
}

// WithRunner replaces process execution, mainly for tests.
func WithRunner(r Runner) Option {
	return func(t *Tool) {
		if r != nil {
			t.runner = r
		}
	}
}

// Tool wraps ffprobe and ffmpeg.
type Tool struct {
	ffmpeg   string
	ffprobe  string
	clipsDir string
	format   string
	runner   Runner
}

// New creates a Tool.
func New(opts ...Option) *Tool {
	t := &Tool{
		ffmpeg:   DefaultFFmpeg,
		ffprobe:  DefaultFFprobe,
		clipsDir: DefaultClipsDir,
		format:   model.DefaultClipFormat,
		runner:   ExecRunner{},
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Format returns the clip container.
func (t *Tool) Format() string { return t.format }

// ClipPath returns where clip is written.
func (t *Tool) ClipPath(clip model.ClipSpec) string {
	return filepath.Join(t.clipsDir, clip.FileName(t.format))
}

// Probe returns the duration of the recording at path in seconds.
func (t *Tool) Probe(ctx context.Context, path string) (float64, error) {
	out, err := t.runner.Run(ctx, t.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, &artifact.IOError{Op: "probe", Path: path, Err: err}
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || secs < 0 {
		return 0, &artifact.IOError{Op: "probe", Path: path, Err: ErrBadDuration}
	}
	return secs, nil
}

// Extract writes the part of src covered by clip, clamped to total seconds,
// and returns the clip path. ok is false when the clip holds no audio; no
// file is written then.
func (t *Tool) Extract(ctx context.Context, src string, clip model.ClipSpec, total float64) (path string, ok bool, err error) {
	start, end, ok := clip.Clamp(total)
	if !ok {
		metrics.RecordClipSkippedEmpty()
		return "", false, nil
	}

	path = t.ClipPath(clip)
	if err := os.MkdirAll(t.clipsDir, 0o755); err != nil {
		return "", false, &artifact.IOError{Op: "extract", Path: path, Err: err}
	}

	began := time.Now()
	_, err = t.runner.Run(ctx, t.ffmpeg,
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", seconds(start),
		"-t", seconds(end-start),
		"-i", src,
		"-vn",
		path,
	)
	if err != nil {
		return "", false, &artifact.IOError{Op: "extract", Path: path, Err: err}
	}
	metrics.RecordClipExtracted(float64(time.Since(began).Milliseconds()))
	return path, true, nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
