package model

import (
	"math"
	"strconv"
)

// DefaultClipFormat is the container used for materialized clips.
const DefaultClipFormat = "mp3"

// ClipSpec addresses one window of the audio plan. Index is 1-based.
type ClipSpec struct {
	Index        int
	StartSeconds float64
	EndSeconds   float64
}

// UnitKey names the clip in logs and errors.
func (c ClipSpec) UnitKey() string {
	return "clip " + strconv.Itoa(c.Index)
}

// FileName returns the clip file name, e.g. "3.mp3".
func (c ClipSpec) FileName(format string) string {
	if format == "" {
		format = DefaultClipFormat
	}
	return strconv.Itoa(c.Index) + "." + format
}

// NominalSeconds is the un-padded start of the clip, used for alignment with
// other time-coded data.
func (c ClipSpec) NominalSeconds(windowSeconds float64) float64 {
	return float64(c.Index-1) * windowSeconds
}

// Clamp bounds the clip to the available audio. ok is false when nothing of
// the clip lies inside [0, total).
func (c ClipSpec) Clamp(total float64) (start, end float64, ok bool) {
	start = math.Max(0, c.StartSeconds)
	end = math.Min(c.EndSeconds, total)
	return start, end, end > start
}

// TranscriptRecord is one transcribed clip in the output artifact.
type TranscriptRecord struct {
	File    string  `json:"file"`
	Seconds float64 `json:"seconds"`
	Content string  `json:"content"`
}
