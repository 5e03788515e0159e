package games

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/MJE43/gamesim/internal/engine"
)

// ErrInsufficientCards is returned by a draw when a player has no cards left
// in hand or discard. A War trial treats it as that player's loss.
var ErrInsufficientCards = errors.New("insufficient cards")

// maxBurn is the most cards each player puts down per war.
const maxBurn = 4

var warSpec = GameSpec{
	ID:      "war",
	Name:    "War",
	Metrics: []string{"turns", "seconds", "wars"},
}

// WarConfig holds the time accounting of a War game.
type WarConfig struct {
	SecondsPerTurn int `json:"seconds_per_turn"`
	SecondsPerWar  int `json:"seconds_per_war"`
}

// DefaultWarConfig returns five seconds a turn and fifteen per war.
func DefaultWarConfig() WarConfig {
	return WarConfig{SecondsPerTurn: 5, SecondsPerWar: 15}
}

// Validate reports every invalid field.
func (c WarConfig) Validate() error {
	var err error
	if c.SecondsPerTurn < 0 {
		err = multierr.Append(err, fmt.Errorf("seconds_per_turn must be >= 0, got %d", c.SecondsPerTurn))
	}
	if c.SecondsPerWar < 0 {
		err = multierr.Append(err, fmt.Errorf("seconds_per_war must be >= 0, got %d", c.SecondsPerWar))
	}
	return err
}

// War is the two-player card game of War.
type War struct {
	cfg WarConfig
}

// NewWar validates cfg and returns the game.
func NewWar(cfg WarConfig) (*War, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("war config: %w", err)
	}
	return &War{cfg: cfg}, nil
}

// Spec returns metadata about War.
func (g *War) Spec() GameSpec { return warSpec }

// Config returns the game's configuration.
func (g *War) Config() WarConfig { return g.cfg }

// NewTrial shuffles and deals a fresh deck.
func (g *War) NewTrial(src engine.Source) (Trial, error) {
	p1, p2 := deal(src)
	return newWarTrial(g.cfg, src, p1, p2), nil
}

// WarOutcome is the result of one War game. Winner is 1 or 2, or 0 when the
// game ended in a draw because a war could not be continued.
type WarOutcome struct {
	Turns   int `json:"turns"`
	Seconds int `json:"seconds"`
	Wars    int `json:"wars"`
	Winner  int `json:"winner"`
}

// Metrics implements Outcome.
func (o WarOutcome) Metrics() []Metric {
	return []Metric{
		{Name: "turns", Value: float64(o.Turns)},
		{Name: "seconds", Value: float64(o.Seconds)},
		{Name: "wars", Value: float64(o.Wars)},
	}
}

// warPlayer holds one player's active hand and discard pile. The top of the
// hand is the last element.
type warPlayer struct {
	hand    []int
	discard []int
}

func (p *warPlayer) remaining() int {
	return len(p.hand) + len(p.discard)
}

// refill shuffles the discard pile into an empty hand.
func (p *warPlayer) refill(src engine.Source) {
	if len(p.hand) > 0 || len(p.discard) == 0 {
		return
	}
	p.hand, p.discard = shuffled(src, p.discard), p.hand[:0]
}

// draw takes the top card. An emptied hand is refilled straight away so the
// next draw always sees the shuffled discard.
func (p *warPlayer) draw(src engine.Source) (int, error) {
	p.refill(src)
	if len(p.hand) == 0 {
		return 0, ErrInsufficientCards
	}
	top := len(p.hand) - 1
	card := p.hand[top]
	p.hand = p.hand[:top]
	p.refill(src)
	return card, nil
}

type warTrial struct {
	cfg     WarConfig
	src     engine.Source
	players [2]warPlayer

	turns   int
	seconds int
	wars    int

	done    bool
	outcome WarOutcome
}

func newWarTrial(cfg WarConfig, src engine.Source, hand1, hand2 []int) *warTrial {
	return &warTrial{
		cfg: cfg,
		src: src,
		players: [2]warPlayer{
			{hand: hand1},
			{hand: hand2},
		},
	}
}

func (t *warTrial) finish(winner int) (Outcome, bool, error) {
	t.done = true
	t.outcome = WarOutcome{
		Turns:   t.turns,
		Seconds: t.seconds,
		Wars:    t.wars,
		Winner:  winner,
	}
	return t.outcome, true, nil
}

// Advance plays one turn, including any chain of wars it triggers.
func (t *warTrial) Advance() (Outcome, bool, error) {
	if t.done {
		return t.outcome, true, nil
	}
	p1, p2 := &t.players[0], &t.players[1]
	switch {
	case p1.remaining() == 0:
		return t.finish(2)
	case p2.remaining() == 0:
		return t.finish(1)
	}

	t.turns++
	t.seconds += t.cfg.SecondsPerTurn

	var played [2][]int
	for i := range t.players {
		card, err := t.players[i].draw(t.src)
		if errors.Is(err, ErrInsufficientCards) {
			return t.finish(2 - i)
		}
		played[i] = append(played[i], card)
	}

	for last(played[0]) == last(played[1]) {
		t.seconds += t.cfg.SecondsPerWar
		t.wars++
		burn := min(p1.remaining(), p2.remaining(), maxBurn)
		if burn == 0 {
			return t.finish(0)
		}
		for n := 0; n < burn; n++ {
			for i := range t.players {
				card, err := t.players[i].draw(t.src)
				if errors.Is(err, ErrInsufficientCards) {
					return t.finish(2 - i)
				}
				played[i] = append(played[i], card)
			}
		}
	}

	winner := &t.players[0]
	if last(played[1]) > last(played[0]) {
		winner = &t.players[1]
	}
	winner.discard = append(winner.discard, played[0]...)
	winner.discard = append(winner.discard, played[1]...)
	return nil, false, nil
}

// cardCount is the number of cards held by both players.
func (t *warTrial) cardCount() int {
	return t.players[0].remaining() + t.players[1].remaining()
}

func last(cards []int) int {
	return cards[len(cards)-1]
}
