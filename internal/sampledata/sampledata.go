// Package sampledata generates synthetic match event feeds for dry runs of
// the possessions pipeline.
package sampledata

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/matchdigest/internal/domain/model"
	"github.com/okian/matchdigest/pkg/logger"
)

// Default generator configuration constants.
const (
	defaultPossessions = 20
	defaultSeed        = 1
	maxEventsPerPoss   = 6
	secondsPerPoss     = 30
	halfMinutes        = 45
)

var (
	teams = [2]string{"Arsenal", "Chelsea"}

	squads = map[string][]string{
		"Arsenal": {"Raya", "Saliba", "Gabriel", "Rice", "Odegaard", "Saka", "Martinelli", "Havertz"},
		"Chelsea": {"Sanchez", "Colwill", "James", "Caicedo", "Enzo", "Palmer", "Madueke", "Jackson"},
	}

	actions     = []string{"pass", "carry", "dribble", "cross", "tackle", "clearance", "shot"}
	pitchAreas  = []string{"defensive third", "middle third", "final third", "box"}
	passActions = map[string]bool{"pass": true, "cross": true}
)

// Config controls generation.
type Config struct {
	Possessions int
	Seed        int64
}

// Option applies a configuration option to Config.
type Option func(*Config)

// WithPossessions sets how many possessions to generate.
func WithPossessions(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Possessions = n
		}
	}
}

// WithSeed fixes the random sequence.
func WithSeed(seed int64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// Generate returns a flat, time-ordered event feed. The same options always
// produce the same feed.
func Generate(ctx context.Context, opts ...Option) []model.RawEvent {
	cfg := Config{Possessions: defaultPossessions, Seed: defaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures
	events := make([]model.RawEvent, 0, cfg.Possessions*maxEventsPerPoss/2)
	home, away := 0, 0

	for p := 0; p < cfg.Possessions; p++ {
		start := float64(p * secondsPerPoss)
		minute := int(start/60) + 1
		period := "1st half"
		if minute > halfMinutes {
			period = "2nd half"
		}
		team := teams[p%2]
		squad := squads[team]
		score := fmt.Sprintf("%d-%d", home, away)

		n := 1 + rng.Intn(maxEventsPerPoss)
		for e := 0; e < n; e++ {
			action := actions[rng.Intn(len(actions))]
			ev := model.RawEvent{
				PossessionStartSeconds: &start,
				Period:                 period,
				Score:                  score,
				Minute:                 minute,
				TeamInPossession:       team,
				PossessionNumber:       p + 1,
				PlayerName:             squad[rng.Intn(len(squad))],
				PlayerTeamName:         team,
				Action:                 action,
				ActionStartPitchArea:   pitchAreas[rng.Intn(len(pitchAreas))],
			}
			if passActions[action] {
				ev.PassRecipientName = squad[rng.Intn(len(squad))]
				ev.ActionLengthYards = 5 + rng.Intn(40)
				ev.ActionEndPitchArea = pitchAreas[rng.Intn(len(pitchAreas))]
			}
			events = append(events, ev)

			if action == "shot" && rng.Intn(4) == 0 {
				if team == teams[0] {
					home++
				} else {
					away++
				}
				break
			}
		}
	}

	logger.Get().Debug(ctx, "sample events generated",
		logger.Int("possessions", cfg.Possessions),
		logger.Int("events", len(events)),
	)
	return events
}
