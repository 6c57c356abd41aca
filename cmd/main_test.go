package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func simulatedEnv(t *testing.T) {
	t.Setenv("MATCHDIGEST_CONFIG", "")
	t.Setenv("MATCHDIGEST_BACKEND", "simulated")
	t.Setenv("MATCHDIGEST_SIMULATED_LATENCY_MIN_MS", "0")
	t.Setenv("MATCHDIGEST_SIMULATED_LATENCY_MAX_MS", "0")
	t.Setenv("MATCHDIGEST_METRICS_ADDR", "")
	t.Setenv("MATCHDIGEST_METRICS_TEXTFILE", "")
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then every pipeline is registered", func() {
			names := []string{}
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "possessions")
			convey.So(names, convey.ShouldContain, "transcripts")
			convey.So(names, convey.ShouldContain, "plan")
			convey.So(names, convey.ShouldContain, "sample")
		})

		convey.Convey("Then the shared flags are persistent", func() {
			convey.So(root.PersistentFlags().Lookup("config"), convey.ShouldNotBeNil)
			convey.So(root.PersistentFlags().Lookup("log-level"), convey.ShouldNotBeNil)
		})
	})
}

func TestPlanCommand(t *testing.T) {
	convey.Convey("Given default windowing", t, func() {
		simulatedEnv(t)

		convey.Convey("When planning a 125 second recording", func() {
			out, err := execute("plan", "--duration", "125")

			convey.Convey("Then three padded clips are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(lines, convey.ShouldResemble, []string{
					"1.mp3\t0.000\t60.000",
					"2.mp3\t59.000\t120.000",
					"3.mp3\t119.000\t125.000",
				})
			})
		})

		convey.Convey("When overlap is disabled and the recording ends on a boundary", func() {
			t.Setenv("MATCHDIGEST_OVERLAP_SECONDS", "0")
			out, err := execute("plan", "--duration", "120")

			convey.Convey("Then the trailing clip is marked empty", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "3.mp3\t120.000\t120.000 (empty)")
			})
		})

		convey.Convey("When neither duration nor audio is given", func() {
			_, err := execute("plan")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the duration is negative", func() {
			_, err := execute("plan", "--duration", "-5")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestPossessionsCommand(t *testing.T) {
	convey.Convey("Given a synthetic events file and the simulated backend", t, func() {
		simulatedEnv(t)
		dir := t.TempDir()
		events := filepath.Join(dir, "data.json")
		narrated := filepath.Join(dir, "data_modified.json")
		textfile := filepath.Join(dir, "matchdigest.prom")
		t.Setenv("MATCHDIGEST_METRICS_TEXTFILE", textfile)

		_, err := execute("sample", "--out", events, "--possessions", "5", "--seed", "3")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the possessions pipeline runs", func() {
			out, err := execute("possessions", "--in", events, "--out", narrated)

			convey.Convey("Then every possession is narrated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "wrote 5 possessions")

				raw, readErr := os.ReadFile(narrated)
				convey.So(readErr, convey.ShouldBeNil)
				var records []map[string]any
				convey.So(json.Unmarshal(raw, &records), convey.ShouldBeNil)
				convey.So(len(records), convey.ShouldEqual, 5)
				for _, r := range records {
					convey.So(r["description"], convey.ShouldNotBeEmpty)
				}
			})

			convey.Convey("Then the metrics textfile is written", func() {
				raw, readErr := os.ReadFile(textfile)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldContainSubstring, "matchdigest_pipeline_units_planned_total")
			})
		})

		convey.Convey("When the input file does not exist", func() {
			_, err := execute("possessions", "--in", filepath.Join(dir, "missing.json"), "--out", narrated)

			convey.Convey("Then the command fails and writes nothing", func() {
				convey.So(err, convey.ShouldNotBeNil)
				_, statErr := os.Stat(narrated)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigErrors(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		simulatedEnv(t)
		t.Setenv("MATCHDIGEST_WINDOW_SECONDS", "0")

		convey.Convey("Then any command fails before running", func() {
			_, err := execute("plan", "--duration", "10")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a missing config file", t, func() {
		simulatedEnv(t)

		convey.Convey("Then loading fails", func() {
			_, err := execute("--config", filepath.Join(t.TempDir(), "nope.yaml"), "plan", "--duration", "10")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
