// Package inference adapts external text-generation and speech-to-text
// services to the enrichment pipelines.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/okian/matchdigest/internal/domain/model"
)

// Backend names accepted by configuration.
const (
	BackendOpenAI    = "openai"
	BackendSimulated = "simulated"
)

// Default models and sampling.
const (
	DefaultNarrativeModel     = "gpt-4"
	DefaultTranscriptionModel = "whisper-1"
	DefaultTemperature        = 0.1
)

// SystemPrompt frames the narrator.
const SystemPrompt = "You are a commentator who describes only the important details. You are pithy and concise."

// Narrator turns the events of one possession into a short narrative.
type Narrator interface {
	Narrate(ctx context.Context, events []model.EventDetail) (string, error)
}

// Transcriber turns one audio clip on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Backend is a service that can do both.
type Backend interface {
	Narrator
	Transcriber
}

// UserPrompt renders the possession events into the narrator request.
func UserPrompt(events []model.EventDetail) (string, error) {
	if events == nil {
		events = []model.EventDetail{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return "", err
	}

	return "Given these soccer events: " + strings.TrimSuffix(buf.String(), "\n") +
		", generate a description of the possession. Use the present tense.", nil
}
