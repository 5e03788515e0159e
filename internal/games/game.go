package games

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/MJE43/gamesim/internal/engine"
)

// ErrUnknownGame is returned when a game id is not registered.
var ErrUnknownGame = errors.New("game not found")

// Metric is one named scalar of a trial outcome.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Outcome is the immutable record a trial produces when it reaches a
// terminal state.
type Outcome interface {
	Metrics() []Metric
}

// Trial is one playthrough in progress. Advance moves the game forward by one
// step (a turn or a round) and reports done together with the outcome once
// the game is terminal. Calling Advance after done returns the same outcome.
type Trial interface {
	Advance() (Outcome, bool, error)
}

// GameSpec describes a registered game.
type GameSpec struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Metrics []string `json:"metrics"`
}

// Game builds fresh trials under one fixed rule set.
type Game interface {
	Spec() GameSpec
	NewTrial(src engine.Source) (Trial, error)
}

// cancelCheckInterval is the number of Advance steps RunTrialContext takes
// between context checks.
const cancelCheckInterval = 1024

// RunTrial drives t from its initial to its terminal state.
func RunTrial(t Trial) (Outcome, error) {
	return RunTrialContext(context.Background(), t)
}

// RunTrialContext is RunTrial bounded by ctx. It returns ctx.Err() once ctx is
// done, checked every cancelCheckInterval steps.
func RunTrialContext(ctx context.Context, t Trial) (Outcome, error) {
	for step := 0; ; step++ {
		if step%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		outcome, done, err := t.Advance()
		if err != nil {
			return nil, err
		}
		if done {
			return outcome, nil
		}
	}
}

// Factory builds a game from JSON overrides applied on top of the game's
// default configuration. An empty config yields the defaults.
type Factory func(config json.RawMessage) (Game, error)

type registration struct {
	spec    GameSpec
	factory Factory
}

var registry = make(map[string]registration)

// Register adds a game to the registry.
func Register(spec GameSpec, factory Factory) {
	registry[spec.ID] = registration{spec: spec, factory: factory}
}

// New builds the registered game id from config overrides.
func New(id string, config json.RawMessage) (Game, error) {
	reg, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return reg.factory(config)
}

// List returns the specs of all registered games ordered by id.
func List() []GameSpec {
	specs := make([]GameSpec, 0, len(registry))
	for _, reg := range registry {
		specs = append(specs, reg.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// decodeConfig strictly decodes raw over the defaults already held by dst.
func decodeConfig(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func init() {
	Register(warSpec, func(raw json.RawMessage) (Game, error) {
		cfg := DefaultWarConfig()
		if err := decodeConfig(raw, &cfg); err != nil {
			return nil, err
		}
		return NewWar(cfg)
	})
	Register(raceSpec, func(raw json.RawMessage) (Game, error) {
		cfg := RaceConfig{}
		if err := decodeConfig(raw, &cfg); err != nil {
			return nil, err
		}
		if cfg.Shortcuts == nil {
			cfg.Shortcuts = DefaultShortcuts()
		}
		return NewRace(cfg)
	})
	Register(crapsSpec, func(raw json.RawMessage) (Game, error) {
		cfg := DefaultCrapsConfig()
		if err := decodeConfig(raw, &cfg); err != nil {
			return nil, err
		}
		return NewCraps(cfg)
	})
}
