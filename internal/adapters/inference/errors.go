package inference

import (
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/okian/matchdigest/internal/domain/enrich"
)

// Sentinel errors for inference backends.
var (
	ErrEmptyResponse  = errors.New("service returned no content")
	ErrUnknownBackend = errors.New("unknown inference backend")
	ErrMissingAPIKey  = errors.New("missing api key")
)

// classify maps a client error onto the retry contract of the orchestrator.
// Rate limiting, server errors and transport failures are retryable; any
// other HTTP status is not.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(op, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(op, reqErr.HTTPStatusCode, err)
	}
	return enrich.Transient(op, err)
}

func statusError(op string, status int, err error) error {
	return &enrich.ServiceCallError{
		Op:         op,
		StatusCode: status,
		Retryable:  retryableStatus(status),
		Err:        err,
	}
}

func retryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
