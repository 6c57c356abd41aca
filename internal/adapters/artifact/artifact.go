// Package artifact reads pipeline inputs and writes pipeline outputs.
// Outputs are written all-or-nothing: a temp file next to the target is
// renamed over it only once the whole document has been written.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/matchdigest/internal/domain/model"
)

// Indentation used by the two output documents.
const (
	PossessionsIndent = 4
	TranscriptsIndent = 2
)

const tmpSuffix = ".tmp"

// ReadEvents decodes a JSON array of match events from path.
func ReadEvents(path string) ([]model.RawEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var events []model.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}
	return events, nil
}

// WriteJSON marshals v with indent spaces and atomically replaces path.
// It returns the number of bytes written. Nothing is created when v cannot
// be marshalled.
func WriteJSON(path string, v any, indent int) (int, error) {
	data, err := json.MarshalIndent(v, "", strings.Repeat(" ", max(indent, 0)))
	if err != nil {
		return 0, &IOError{Op: "encode", Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, &IOError{Op: "write", Path: path, Err: err}
		}
	}

	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return 0, &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, &IOError{Op: "write", Path: path, Err: err}
	}
	return len(data), nil
}
