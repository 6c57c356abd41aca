// Package assemble zips planned units with their enrichment results into the
// final output records.
package assemble

import (
	"errors"
	"fmt"

	"github.com/okian/matchdigest/internal/domain/model"
)

// ErrLengthMismatch is returned when units and results cannot be zipped.
var ErrLengthMismatch = errors.New("result count does not match unit count")

// Possessions pairs each group with the narrative at the same position.
// The header is kept verbatim and also prefixed to the description.
func Possessions(groups []model.PossessionGroup, narratives []string) ([]model.Possession, error) {
	if len(groups) != len(narratives) {
		return nil, fmt.Errorf("%w: %d possessions, %d narratives", ErrLengthMismatch, len(groups), len(narratives))
	}

	out := make([]model.Possession, len(groups))
	for i, g := range groups {
		out[i] = model.Possession{
			Key:         g.Key,
			Details:     g.Details,
			Description: g.Details + "\n" + narratives[i],
		}
	}
	return out, nil
}

// Transcripts pairs each clip with the transcript at the same position.
// Seconds is the nominal clip start, (index-1)*windowSeconds.
func Transcripts(clips []model.ClipSpec, transcripts []string, windowSeconds float64, format string) ([]model.TranscriptRecord, error) {
	if len(clips) != len(transcripts) {
		return nil, fmt.Errorf("%w: %d clips, %d transcripts", ErrLengthMismatch, len(clips), len(transcripts))
	}

	out := make([]model.TranscriptRecord, len(clips))
	for i, c := range clips {
		out[i] = model.TranscriptRecord{
			File:    c.FileName(format),
			Seconds: c.NominalSeconds(windowSeconds),
			Content: transcripts[i],
		}
	}
	return out, nil
}
