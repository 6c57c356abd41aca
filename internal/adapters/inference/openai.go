package inference

import (
	"context"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/internal/domain/model"
)

const (
	opChat       = "chat completion"
	opTranscribe = "transcription"
)

// OpenAIOption applies a configuration option to the OpenAI backend.
type OpenAIOption func(*OpenAI)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		if url != "" {
			o.cfg.BaseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if c != nil {
			o.cfg.HTTPClient = c
		}
	}
}

// WithNarrativeModel sets the chat model.
func WithNarrativeModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.narrativeModel = model
		}
	}
}

// WithTranscriptionModel sets the speech-to-text model.
func WithTranscriptionModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.transcriptionModel = model
		}
	}
}

// WithTemperature sets the sampling temperature of narrative requests.
func WithTemperature(t float32) OpenAIOption {
	return func(o *OpenAI) {
		if t >= 0 {
			o.temperature = t
		}
	}
}

// OpenAI implements Backend over the OpenAI HTTP API.
type OpenAI struct {
	cfg                openai.ClientConfig
	client             *openai.Client
	narrativeModel     string
	transcriptionModel string
	temperature        float32
}

// NewOpenAI creates a backend authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	o := &OpenAI{
		cfg:                openai.DefaultConfig(apiKey),
		narrativeModel:     DefaultNarrativeModel,
		transcriptionModel: DefaultTranscriptionModel,
		temperature:        DefaultTemperature,
	}

	// Apply all options
	for _, opt := range opts {
		opt(o)
	}

	o.client = openai.NewClientWithConfig(o.cfg)
	return o, nil
}

// Narrate asks the chat model to describe one possession.
func (o *OpenAI) Narrate(ctx context.Context, events []model.EventDetail) (string, error) {
	prompt, err := UserPrompt(events)
	if err != nil {
		return "", enrich.Permanent(opChat, err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.narrativeModel,
		Temperature: o.requestTemperature(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classify(opChat, err)
	}
	if len(resp.Choices) == 0 {
		return "", enrich.Permanent(opChat, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// requestTemperature returns the temperature to send. The request field is
// omitted when zero, which the API reads as its default of 1.
func (o *OpenAI) requestTemperature() float32 {
	if o.temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return o.temperature
}

// Transcribe uploads the clip at path to the speech model.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", enrich.Permanent(opTranscribe, err)
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcriptionModel,
		FilePath: path,
	})
	if err != nil {
		return "", classify(opTranscribe, err)
	}
	return resp.Text, nil
}
