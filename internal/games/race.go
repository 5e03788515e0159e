package games

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/MJE43/gamesim/internal/engine"
)

// FinishSquare is the square a race must land on exactly.
const FinishSquare = 100

const raceDieSides = 6

var raceSpec = GameSpec{
	ID:      "race",
	Name:    "Chutes and Ladders",
	Metrics: []string{"turns", "shortcuts"},
}

// RaceConfig holds the board's shortcut table: landing on a trigger square
// moves the token straight to its destination. Ladders point forward, chutes
// point back.
type RaceConfig struct {
	Shortcuts map[int]int `json:"shortcuts"`
}

// DefaultRaceConfig returns the standard board.
func DefaultRaceConfig() RaceConfig {
	return RaceConfig{Shortcuts: DefaultShortcuts()}
}

// Validate checks every shortcut and that the finish stays reachable from
// every square a token can occupy.
func (c RaceConfig) Validate() error {
	var err error
	for _, trigger := range slices.Sorted(maps.Keys(c.Shortcuts)) {
		dest := c.Shortcuts[trigger]
		if trigger < 1 || trigger >= FinishSquare {
			err = multierr.Append(err, fmt.Errorf("shortcut trigger %d outside 1..%d", trigger, FinishSquare-1))
		}
		if dest < 0 || dest > FinishSquare {
			err = multierr.Append(err, fmt.Errorf("shortcut %d->%d destination outside 0..%d", trigger, dest, FinishSquare))
		}
		if trigger == dest {
			err = multierr.Append(err, fmt.Errorf("shortcut %d points at itself", trigger))
		}
	}
	if err != nil {
		return err
	}
	if stuck, ok := c.unfinishable(); ok {
		return fmt.Errorf("square %d is reachable but can never reach %d", stuck, FinishSquare)
	}
	return nil
}

// move applies one roll from pos. Candidates past the finish forfeit the move.
func (c RaceConfig) move(pos, roll int) (int, bool) {
	candidate := pos + roll
	if candidate > FinishSquare {
		return pos, false
	}
	if dest, ok := c.Shortcuts[candidate]; ok {
		return dest, true
	}
	return candidate, false
}

// unfinishable returns a square reachable from the start from which the
// finish can never be reached, if one exists.
func (c RaceConfig) unfinishable() (int, bool) {
	var next [FinishSquare + 1][]int
	for pos := 0; pos < FinishSquare; pos++ {
		for roll := 1; roll <= raceDieSides; roll++ {
			to, _ := c.move(pos, roll)
			next[pos] = append(next[pos], to)
		}
	}

	reachable := make([]bool, FinishSquare+1)
	queue := []int{0}
	reachable[0] = true
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		for _, to := range next[pos] {
			if !reachable[to] {
				reachable[to] = true
				queue = append(queue, to)
			}
		}
	}

	finishes := make([]bool, FinishSquare+1)
	finishes[FinishSquare] = true
	for changed := true; changed; {
		changed = false
		for pos := 0; pos < FinishSquare; pos++ {
			if finishes[pos] {
				continue
			}
			for _, to := range next[pos] {
				if finishes[to] {
					finishes[pos] = true
					changed = true
					break
				}
			}
		}
	}

	for pos, ok := range reachable {
		if ok && !finishes[pos] {
			return pos, true
		}
	}
	return 0, false
}

// Race is a single-token race to square 100 over a board of shortcuts.
type Race struct {
	cfg RaceConfig
}

// NewRace validates cfg and returns the game. The shortcut table is copied.
func NewRace(cfg RaceConfig) (*Race, error) {
	cfg.Shortcuts = maps.Clone(cfg.Shortcuts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("race config: %w", err)
	}
	return &Race{cfg: cfg}, nil
}

// Spec returns metadata about the race.
func (g *Race) Spec() GameSpec { return raceSpec }

// Config returns the game's configuration.
func (g *Race) Config() RaceConfig { return g.cfg }

// NewTrial places a token on square 0.
func (g *Race) NewTrial(src engine.Source) (Trial, error) {
	return &raceTrial{cfg: g.cfg, src: src}, nil
}

// RaceOutcome is the result of one race.
type RaceOutcome struct {
	Turns     int `json:"turns"`
	Shortcuts int `json:"shortcuts"`
}

// Metrics implements Outcome.
func (o RaceOutcome) Metrics() []Metric {
	return []Metric{
		{Name: "turns", Value: float64(o.Turns)},
		{Name: "shortcuts", Value: float64(o.Shortcuts)},
	}
}

type raceTrial struct {
	cfg       RaceConfig
	src       engine.Source
	position  int
	turns     int
	shortcuts int
}

// Advance rolls the die once.
func (t *raceTrial) Advance() (Outcome, bool, error) {
	if t.position == FinishSquare {
		return RaceOutcome{Turns: t.turns, Shortcuts: t.shortcuts}, true, nil
	}
	roll, err := t.src.UniformInt(1, raceDieSides)
	if err != nil {
		return nil, false, fmt.Errorf("roll die: %w", err)
	}
	t.turns++
	pos, took := t.cfg.move(t.position, roll)
	if took {
		t.shortcuts++
	}
	t.position = pos
	return nil, false, nil
}

// ParseShortcuts parses a "trigger:destination" list such as "1:38,4:14".
func ParseShortcuts(s string) (map[int]int, error) {
	out := make(map[int]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("shortcut %q: want trigger:destination", pair)
		}
		trigger, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("shortcut %q trigger: %w", pair, err)
		}
		dest, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("shortcut %q destination: %w", pair, err)
		}
		if _, dup := out[trigger]; dup {
			return nil, fmt.Errorf("shortcut trigger %d listed twice", trigger)
		}
		out[trigger] = dest
	}
	return out, nil
}

// FormatShortcuts renders a table in ParseShortcuts form, ordered by trigger.
func FormatShortcuts(m map[int]int) string {
	parts := make([]string, 0, len(m))
	for _, trigger := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%d:%d", trigger, m[trigger]))
	}
	return strings.Join(parts, ",")
}
