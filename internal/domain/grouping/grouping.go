// Package grouping collapses an ordered stream of match events into
// possessions keyed by their start timestamp.
package grouping

import (
	"github.com/okian/matchdigest/internal/domain/model"
)

// Group folds events into possession groups in a single pass.
//
// Groups are returned in the order their key was first seen. The header of a
// group comes from the first event carrying its key; later events only append
// their projected details. An event missing a required field aborts grouping
// with a *SchemaError and no groups are returned.
func Group(events []model.RawEvent) ([]model.PossessionGroup, error) {
	groups := make([]model.PossessionGroup, 0)
	index := make(map[float64]int)

	for i := range events {
		e := &events[i]
		if field := e.MissingField(); field != "" {
			return nil, &SchemaError{Index: i, Field: field}
		}

		key := *e.PossessionStartSeconds
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, model.PossessionGroup{
				Key:     key,
				Details: model.Header(e),
			})
		}
		groups[pos].Events = append(groups[pos].Events, e.Detail())
	}

	return groups, nil
}

// Keys returns the group keys in output order.
func Keys(groups []model.PossessionGroup) []float64 {
	keys := make([]float64, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}
