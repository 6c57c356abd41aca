package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the custom names", func() {
				So(manager, ShouldNotBeNil)
				manager.unitsPlanned.WithLabelValues(PipelinePossessions).Add(2)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_units_planned_total")
			})
		})

		Convey("When creating twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording enrichment outcomes", func() {
			before := testutil.ToFloat64(globalManager.enrichCalls.WithLabelValues(PipelineTranscripts, OutcomeRetry))
			RecordEnrichCall(PipelineTranscripts, OutcomeRetry)
			RecordEnrichCall(PipelineTranscripts, OutcomeRetry)

			Convey("Then the labelled counter grows", func() {
				after := testutil.ToFloat64(globalManager.enrichCalls.WithLabelValues(PipelineTranscripts, OutcomeRetry))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording gauges and counters", func() {
			UpdateProgressQueueSize(7)
			UpdateAudioDuration(125)
			dropped := testutil.ToFloat64(globalManager.progressDropped)
			RecordProgressDropped()

			Convey("Then values are reflected", func() {
				So(testutil.ToFloat64(globalManager.progressQueueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.audioDurationSeconds), ShouldEqual, 125)
				So(testutil.ToFloat64(globalManager.progressDropped)-dropped, ShouldEqual, 1)
			})
		})

		Convey("When recording histograms", func() {
			So(func() {
				RecordUnitsPlanned(PipelinePossessions, 3)
				RecordEnrichLatency(PipelinePossessions, 120)
				RecordPacingWait(PipelinePossessions, 30)
				RecordUnitFailure(PipelinePossessions)
				RecordClipExtracted(40)
				RecordClipSkippedEmpty()
				RecordRunDuration(PipelinePossessions, StatusOK, 1500)
				RecordArtifactBytes(PipelinePossessions, 512)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsExposition(t *testing.T) {
	Convey("Given recorded metrics", t, func() {
		RecordArtifactBytes(PipelineTranscripts, 64)

		Convey("When scraping the handler", func() {
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the exposition contains pipeline metrics", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "matchdigest_pipeline_artifact_bytes_total")
			})
		})

		Convey("When writing a textfile", func() {
			path := filepath.Join(t.TempDir(), "matchdigest.prom")
			err := WriteTextfile(path)

			Convey("Then the file holds the exposition", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "matchdigest_pipeline_artifact_bytes_total"), ShouldBeTrue)
			})
		})

		Convey("When the textfile path is empty", func() {
			So(errors.Is(WriteTextfile(""), ErrNoTextfilePath), ShouldBeTrue)
		})

		Convey("When the textfile directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
			So(errors.Is(err, ErrWriteFailed), ShouldBeTrue)
		})
	})
}
