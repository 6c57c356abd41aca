package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchdigest/internal/adapters/inference"
	service "github.com/okian/matchdigest/internal/app"
	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/internal/domain/grouping"
	"github.com/okian/matchdigest/internal/domain/model"
	"github.com/okian/matchdigest/internal/domain/segment"
	"github.com/okian/matchdigest/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const matchEvents = `[
  {"timestamp_start_of_possession_seconds": 754, "period": "1st half", "score": "0-0", "minute": 12,
   "team_in_possession": "Arsenal", "possession_number": 31,
   "player_name": "Rice", "player_team_name": "Arsenal", "action": "pass", "pass_recipient_name": "Saka"},
  {"timestamp_start_of_possession_seconds": 790, "period": "1st half", "score": "0-0", "minute": 13,
   "team_in_possession": "Chelsea", "possession_number": 32,
   "player_name": "Palmer", "player_team_name": "Chelsea", "action": "dribble"},
  {"timestamp_start_of_possession_seconds": 754, "period": "1st half", "score": "0-0", "minute": 12,
   "team_in_possession": "Arsenal", "possession_number": 31,
   "player_name": "Saka", "player_team_name": "Arsenal", "action": "shot"}
]`

func writeEvents(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noSleep(context.Context, time.Duration) error { return nil }

func fastBackend(opts ...inference.SimulatedOption) *inference.Simulated {
	return inference.NewSimulated(append([]inference.SimulatedOption{inference.WithLatencyRange(0, 0)}, opts...)...)
}

// fakeAudio records extraction without touching ffmpeg.
type fakeAudio struct {
	mu        sync.Mutex
	dir       string
	probe     float64
	probeErr  error
	failAt    int
	extracted []int
}

func (f *fakeAudio) Probe(context.Context, string) (float64, error) { return f.probe, f.probeErr }

func (f *fakeAudio) Extract(_ context.Context, _ string, clip model.ClipSpec, total float64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if clip.Index == f.failAt {
		return "", false, errors.New("ffmpeg: exit status 1")
	}
	if _, _, ok := clip.Clamp(total); !ok {
		return "", false, nil
	}
	f.extracted = append(f.extracted, clip.Index)
	return f.ClipPath(clip), true, nil
}

func (f *fakeAudio) ClipPath(clip model.ClipSpec) string {
	return filepath.Join(f.dir, clip.FileName(f.Format()))
}

func (f *fakeAudio) Format() string { return model.DefaultClipFormat }

func TestService_DigestPossessions(t *testing.T) {
	Convey("Given a service with a simulated narrator", t, func() {
		ctx := context.Background()
		in := writeEvents(t, matchEvents)
		out := filepath.Join(t.TempDir(), "data_modified.json")
		backend := fastBackend()
		svc := service.New(
			service.WithNarrator(backend),
			service.WithRunIDs(func() string { return "run-1" }),
		)

		Convey("When digesting the match", func() {
			res, err := svc.DigestPossessions(ctx, in, out)

			Convey("Then possessions are written in first-seen order", func() {
				So(err, ShouldBeNil)
				So(res.RunID, ShouldEqual, "run-1")
				So(res.Units, ShouldEqual, 2)
				So(res.Progress.Completed, ShouldEqual, 2)
				So(backend.Calls(), ShouldEqual, 2)

				data, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				So(res.Bytes, ShouldEqual, len(data))

				var records []model.Possession
				So(json.Unmarshal(data, &records), ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].Key, ShouldEqual, 754)
				So(records[0].Details, ShouldEqual, "1st half, 0-0, minute 12, Arsenal in possession, possession number 31")
				So(records[0].Description, ShouldEqual, records[0].Details+"\nRice plays a pass, then Saka plays a shot.")
				So(records[1].Key, ShouldEqual, 790)
			})
		})

		Convey("When an event lacks a required field", func() {
			bad := writeEvents(t, `[{"timestamp_start_of_possession_seconds": 1, "period": "1st half"}]`)
			_, err := svc.DigestPossessions(ctx, bad, out)

			Convey("Then the run fails before any call and writes nothing", func() {
				So(errors.Is(err, grouping.ErrSchema), ShouldBeTrue)
				So(backend.Calls(), ShouldEqual, 0)
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})

	Convey("Given a narrator that fails permanently on the second possession", t, func() {
		ctx := context.Background()
		in := writeEvents(t, matchEvents)
		out := filepath.Join(t.TempDir(), "data_modified.json")
		backend := fastBackend(inference.WithFaults(func(n int, _ string) error {
			if n == 2 {
				return enrich.Permanent("chat completion", errors.New("content filtered"))
			}
			return nil
		}))

		Convey("When the failure policy aborts", func() {
			svc := service.New(service.WithNarrator(backend), service.WithSleeper(noSleep))
			_, err := svc.DigestPossessions(ctx, in, out)

			Convey("Then the run names the unit and no artifact exists", func() {
				var fatal *enrich.ServiceFatalError
				So(errors.As(err, &fatal), ShouldBeTrue)
				So(fatal.Unit, ShouldEqual, "possession 790")
				So(fatal.Attempts, ShouldEqual, 1)
				So(backend.Calls(), ShouldEqual, 2)
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the failure policy substitutes a placeholder", func() {
			svc := service.New(
				service.WithNarrator(backend),
				service.WithSleeper(noSleep),
				service.WithFailurePolicy(enrich.FailPlaceholder, "(no commentary)"),
			)
			res, err := svc.DigestPossessions(ctx, in, out)

			Convey("Then the artifact is written with the placeholder", func() {
				So(err, ShouldBeNil)
				So(res.Progress.Placeholders, ShouldEqual, 1)

				var records []model.Possession
				data, _ := os.ReadFile(out)
				So(json.Unmarshal(data, &records), ShouldBeNil)
				So(records[1].Description, ShouldEndWith, "\n(no commentary)")
			})
		})
	})

	Convey("Given a narrator that is rate limited once", t, func() {
		backend := fastBackend(inference.WithFaults(func(n int, _ string) error {
			if n == 1 {
				return enrich.Transient("chat completion", errors.New("429"))
			}
			return nil
		}))
		svc := service.New(service.WithNarrator(backend), service.WithSleeper(noSleep))

		Convey("Then the unit is retried and the run succeeds", func() {
			res, err := svc.DigestPossessions(context.Background(), writeEvents(t, matchEvents), filepath.Join(t.TempDir(), "o.json"))
			So(err, ShouldBeNil)
			So(res.Progress.Retries, ShouldEqual, 1)
			So(backend.Calls(), ShouldEqual, 3)
		})
	})

	Convey("Given a service without a narrator", t, func() {
		_, err := service.New().DigestPossessions(context.Background(), "in.json", "out.json")
		So(errors.Is(err, service.ErrNoBackend), ShouldBeTrue)
	})
}

func TestService_TranscribeAudio(t *testing.T) {
	Convey("Given a service with a fake audio tool", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		out := filepath.Join(dir, "clips.json")
		tool := &fakeAudio{dir: filepath.Join(dir, "clips"), probe: 125}
		backend := fastBackend()
		svc := service.New(service.WithTranscriber(backend), service.WithAudioTool(tool))

		Convey("When the duration is probed", func() {
			res, err := svc.TranscribeAudio(ctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out})

			Convey("Then every clip is transcribed at its nominal offset", func() {
				So(err, ShouldBeNil)
				So(res.Units, ShouldEqual, 3)
				So(tool.extracted, ShouldResemble, []int{1, 2, 3})

				var records []model.TranscriptRecord
				data, _ := os.ReadFile(out)
				So(json.Unmarshal(data, &records), ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				for i, r := range records {
					So(r.File, ShouldEqual, strconv.Itoa(i+1)+".mp3")
					So(r.Seconds, ShouldEqual, float64(i*60))
					So(r.Content, ShouldEqual, "Simulated transcript of "+r.File+".")
				}
			})
		})

		Convey("When there is no pre-roll and the recording ends on a window boundary", func() {
			d := 120.0
			svc := service.New(
				service.WithTranscriber(backend),
				service.WithAudioTool(tool),
				service.WithWindow(segment.DefaultWindowSeconds, 0),
			)
			_, err := svc.TranscribeAudio(ctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out, Duration: &d})

			Convey("Then the trailing empty clip has no content and costs no call", func() {
				So(err, ShouldBeNil)
				So(tool.extracted, ShouldResemble, []int{1, 2})
				So(backend.Calls(), ShouldEqual, 2)

				var records []model.TranscriptRecord
				data, _ := os.ReadFile(out)
				So(json.Unmarshal(data, &records), ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[2].Content, ShouldEqual, "")
				So(records[2].Seconds, ShouldEqual, 120)
			})
		})

		Convey("When clips already exist on disk", func() {
			d := 61.0
			res, err := svc.TranscribeAudio(ctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out, Duration: &d, SkipExtract: true})

			Convey("Then nothing is extracted", func() {
				So(err, ShouldBeNil)
				So(res.Units, ShouldEqual, 2)
				So(tool.extracted, ShouldBeEmpty)
				So(backend.Calls(), ShouldEqual, 2)
			})
		})

		Convey("When extraction fails", func() {
			tool.failAt = 2
			_, err := svc.TranscribeAudio(ctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out})

			Convey("Then no service call is made and nothing is written", func() {
				So(err, ShouldNotBeNil)
				So(backend.Calls(), ShouldEqual, 0)
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the duration is invalid", func() {
			d := -1.0
			_, err := svc.TranscribeAudio(ctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out, Duration: &d})
			So(errors.Is(err, segment.ErrInvalidDuration), ShouldBeTrue)
		})

		Convey("When the run is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.TranscribeAudio(cctx, service.TranscribeRequest{Audio: "podcast.mp3", Out: out})

			Convey("Then it aborts without output", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}

func TestService_Plan(t *testing.T) {
	Convey("Given a service with a 30s window", t, func() {
		svc := service.New(service.WithWindow(30, 2))

		Convey("Then the plan uses it", func() {
			clips, err := svc.Plan(65)
			So(err, ShouldBeNil)
			So(clips, ShouldResemble, []model.ClipSpec{
				{Index: 1, StartSeconds: 0, EndSeconds: 30},
				{Index: 2, StartSeconds: 28, EndSeconds: 60},
				{Index: 3, StartSeconds: 58, EndSeconds: 90},
			})
		})
	})
}
