package grouping

import (
	"errors"
	"fmt"
)

// ErrSchema marks input events that lack a required field.
var ErrSchema = errors.New("schema error")

// SchemaError reports the first malformed event of the input.
type SchemaError struct {
	Index int    // 0-based position of the event in the input
	Field string // missing required key
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: event %d: missing required field %q", ErrSchema, e.Index, e.Field)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
