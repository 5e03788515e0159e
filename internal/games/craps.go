package games

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/MJE43/gamesim/internal/engine"
)

// Termination modes.
const (
	ModeFixedRounds = "fixed_rounds"
	ModeThreshold   = "threshold"
)

// Line bet strategies.
const (
	StrategyPassLine = "pass_line"
	StrategyDontPass = "dont_pass"
)

// Reasons a craps trial stopped.
const (
	StopRounds = "rounds"
	StopWin    = "win"
	StopLoss   = "loss"
	StopCap    = "cap"
)

var crapsSpec = GameSpec{
	ID:   "craps",
	Name: "Craps",
	Metrics: []string{
		"bankroll", "rounds", "rolls",
		"low_hits", "high_hits", "all_hits",
		"twelve_hits", "field_wins",
		"line_wins", "line_losses", "pushes",
	},
}

// CrapsStakes are the amounts wagered per bet type. A zero stake disables
// the bet.
type CrapsStakes struct {
	Line   decimal.Decimal `json:"line"`
	Odds   decimal.Decimal `json:"odds"`
	Low    decimal.Decimal `json:"low"`
	High   decimal.Decimal `json:"high"`
	All    decimal.Decimal `json:"all"`
	Field  decimal.Decimal `json:"field"`
	Twelve decimal.Decimal `json:"twelve"`
}

// sideBets is the total placed on the multi-roll side bets each cycle.
func (s CrapsStakes) sideBets() decimal.Decimal {
	return s.Low.Add(s.High).Add(s.All)
}

// CrapsConfig configures a craps session.
type CrapsConfig struct {
	Mode          string          `json:"mode"`
	Rounds        int             `json:"rounds"`
	WinThreshold  decimal.Decimal `json:"win_threshold"`
	LossThreshold decimal.Decimal `json:"loss_threshold"`
	MaxRounds     int             `json:"max_rounds"`
	Strategy      string          `json:"strategy"`
	Stakes        CrapsStakes     `json:"stakes"`
}

// DefaultCrapsConfig plays don't pass until the bankroll moves 100 either way.
func DefaultCrapsConfig() CrapsConfig {
	return CrapsConfig{
		Mode:          ModeThreshold,
		Rounds:        5000,
		WinThreshold:  decimal.NewFromInt(100),
		LossThreshold: decimal.NewFromInt(-100),
		MaxRounds:     100000,
		Strategy:      StrategyDontPass,
		Stakes: CrapsStakes{
			Line: decimal.NewFromInt(3),
			Odds: decimal.NewFromInt(3),
			Low:  decimal.NewFromInt(1),
			High: decimal.NewFromInt(1),
		},
	}
}

// Validate reports every invalid field.
func (c CrapsConfig) Validate() error {
	var err error
	switch c.Mode {
	case ModeFixedRounds:
		if c.Rounds <= 0 {
			err = multierr.Append(err, fmt.Errorf("rounds must be > 0, got %d", c.Rounds))
		}
	case ModeThreshold:
		if !c.LossThreshold.LessThan(c.WinThreshold) {
			err = multierr.Append(err, fmt.Errorf("loss_threshold %s must be below win_threshold %s", c.LossThreshold, c.WinThreshold))
		}
		if c.MaxRounds <= 0 {
			err = multierr.Append(err, fmt.Errorf("max_rounds must be > 0, got %d", c.MaxRounds))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("mode must be %q or %q, got %q", ModeFixedRounds, ModeThreshold, c.Mode))
	}
	if c.Strategy != StrategyPassLine && c.Strategy != StrategyDontPass {
		err = multierr.Append(err, fmt.Errorf("strategy must be %q or %q, got %q", StrategyPassLine, StrategyDontPass, c.Strategy))
	}
	for _, s := range []struct {
		name  string
		stake decimal.Decimal
	}{
		{"line", c.Stakes.Line},
		{"odds", c.Stakes.Odds},
		{"low", c.Stakes.Low},
		{"high", c.Stakes.High},
		{"all", c.Stakes.All},
		{"field", c.Stakes.Field},
		{"twelve", c.Stakes.Twelve},
	} {
		if s.stake.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("stakes.%s must be >= 0, got %s", s.name, s.stake))
		}
	}
	return err
}

// Craps is a craps session with a line bet and optional side bets.
type Craps struct {
	cfg   CrapsConfig
	trace *log.Logger
}

// NewCraps validates cfg and returns the game.
func NewCraps(cfg CrapsConfig) (*Craps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("craps config: %w", err)
	}
	return &Craps{cfg: cfg}, nil
}

// Spec returns metadata about craps.
func (g *Craps) Spec() GameSpec { return crapsSpec }

// Config returns the game's configuration.
func (g *Craps) Config() CrapsConfig { return g.cfg }

// WithTrace returns a copy of g whose trials log every roll to l. The logger
// is shared by all trials, so traced games should be run one trial at a time.
func (g *Craps) WithTrace(l *log.Logger) *Craps {
	c := *g
	c.trace = l
	return &c
}

// Traced reports whether the game logs its rolls.
func (g *Craps) Traced() bool { return g.trace != nil }

// NewTrial places the opening side bets.
func (g *Craps) NewTrial(src engine.Source) (Trial, error) {
	t := &crapsTrial{
		cfg:      g.cfg,
		src:      src,
		trace:    g.trace,
		bankroll: g.cfg.Stakes.sideBets().Neg(),
	}
	t.tracef("start strategy=%s side_bets=%s bankroll=%s", g.cfg.Strategy, g.cfg.Stakes.sideBets(), t.bankroll)
	return t, nil
}

// CrapsOutcome is the result of one craps session.
type CrapsOutcome struct {
	Bankroll   decimal.Decimal `json:"bankroll"`
	Rounds     int             `json:"rounds"`
	Rolls      int             `json:"rolls"`
	LowHits    int             `json:"low_hits"`
	HighHits   int             `json:"high_hits"`
	AllHits    int             `json:"all_hits"`
	TwelveHits int             `json:"twelve_hits"`
	FieldWins  int             `json:"field_wins"`
	LineWins   int             `json:"line_wins"`
	LineLosses int             `json:"line_losses"`
	Pushes     int             `json:"pushes"`
	Stop       string          `json:"stop"`
}

// Metrics implements Outcome.
func (o CrapsOutcome) Metrics() []Metric {
	return []Metric{
		{Name: "bankroll", Value: o.Bankroll.InexactFloat64()},
		{Name: "rounds", Value: float64(o.Rounds)},
		{Name: "rolls", Value: float64(o.Rolls)},
		{Name: "low_hits", Value: float64(o.LowHits)},
		{Name: "high_hits", Value: float64(o.HighHits)},
		{Name: "all_hits", Value: float64(o.AllHits)},
		{Name: "twelve_hits", Value: float64(o.TwelveHits)},
		{Name: "field_wins", Value: float64(o.FieldWins)},
		{Name: "line_wins", Value: float64(o.LineWins)},
		{Name: "line_losses", Value: float64(o.LineLosses)},
		{Name: "pushes", Value: float64(o.Pushes)},
	}
}

type crapsTrial struct {
	cfg   CrapsConfig
	src   engine.Source
	trace *log.Logger

	bankroll decimal.Decimal
	point    int
	// numbers holds the totals rolled since the last seven, one bit each.
	numbers uint16
	counts  CrapsOutcome

	done bool
}

func (t *crapsTrial) tracef(format string, args ...any) {
	if t.trace != nil {
		t.trace.Printf(format, args...)
	}
}

// stopReason reports whether the session is over before the next round.
func (t *crapsTrial) stopReason() (string, bool) {
	rounds := t.counts.Rounds
	if t.cfg.Mode == ModeFixedRounds {
		if rounds >= t.cfg.Rounds {
			return StopRounds, true
		}
		return "", false
	}
	switch {
	case t.bankroll.GreaterThanOrEqual(t.cfg.WinThreshold):
		return StopWin, true
	case t.bankroll.LessThanOrEqual(t.cfg.LossThreshold):
		return StopLoss, true
	case rounds >= t.cfg.MaxRounds:
		return StopCap, true
	}
	return "", false
}

func (t *crapsTrial) outcome() CrapsOutcome {
	out := t.counts
	out.Bankroll = t.bankroll
	return out
}

// Advance plays one line bet round, from come-out to resolution.
func (t *crapsTrial) Advance() (Outcome, bool, error) {
	if t.done {
		return t.outcome(), true, nil
	}
	if stop, ok := t.stopReason(); ok {
		t.done = true
		t.counts.Stop = stop
		t.tracef("stop reason=%s rounds=%d bankroll=%s", stop, t.counts.Rounds, t.bankroll)
		return t.outcome(), true, nil
	}
	if err := t.playRound(); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func (t *crapsTrial) playRound() error {
	t.counts.Rounds++
	t.point = 0
	stakes := t.cfg.Stakes
	pass := t.cfg.Strategy == StrategyPassLine

	t.bankroll = t.bankroll.Sub(stakes.Line)
	t.tracef("round=%d line=%s strategy=%s", t.counts.Rounds, stakes.Line, t.cfg.Strategy)

	comeOut, err := t.roll()
	if err != nil {
		return err
	}
	switch {
	case pass && (comeOut == 7 || comeOut == 11),
		!pass && (comeOut == 2 || comeOut == 3):
		t.winLine(decimal.Zero, ratio{})
		return nil
	case pass && (comeOut == 2 || comeOut == 3 || comeOut == 12),
		!pass && (comeOut == 7 || comeOut == 11):
		t.loseLine()
		return nil
	case !pass && comeOut == 12:
		t.counts.Pushes++
		t.bankroll = t.bankroll.Add(stakes.Line)
		t.tracef("round=%d result=push bankroll=%s", t.counts.Rounds, t.bankroll)
		return nil
	}

	t.point = comeOut
	t.bankroll = t.bankroll.Sub(stakes.Odds)
	t.tracef("round=%d point=%d odds=%s", t.counts.Rounds, t.point, stakes.Odds)

	odds := passOdds
	if !pass {
		odds = dontPassOdds
	}
	for {
		r, err := t.roll()
		if err != nil {
			return err
		}
		switch {
		case r == t.point && pass, r == 7 && !pass:
			t.winLine(stakes.Odds, odds[t.point])
			return nil
		case r == 7 && pass, r == t.point && !pass:
			t.loseLine()
			return nil
		}
	}
}

// winLine returns the line stake doubled, plus the odds stake and its
// winnings when a point was made.
func (t *crapsTrial) winLine(odds decimal.Decimal, mult ratio) {
	line := t.cfg.Stakes.Line
	t.counts.LineWins++
	t.bankroll = t.bankroll.Add(line.Mul(decimal.NewFromInt(2)))
	if t.point != 0 {
		t.bankroll = t.bankroll.Add(odds).Add(mult.apply(odds))
	}
	t.tracef("round=%d result=win point=%d bankroll=%s", t.counts.Rounds, t.point, t.bankroll)
}

func (t *crapsTrial) loseLine() {
	t.counts.LineLosses++
	t.tracef("round=%d result=lose point=%d bankroll=%s", t.counts.Rounds, t.point, t.bankroll)
}

// roll throws two dice and settles every bet that resolves on a single roll.
func (t *crapsTrial) roll() (int, error) {
	d1, err := t.src.UniformInt(1, 6)
	if err != nil {
		return 0, fmt.Errorf("roll die: %w", err)
	}
	d2, err := t.src.UniformInt(1, 6)
	if err != nil {
		return 0, fmt.Errorf("roll die: %w", err)
	}
	total := d1 + d2
	t.settleRoll(total)
	return total, nil
}

// settleRoll applies the single-roll bets, the roll counters and the
// multi-roll side bets for one dice total.
func (t *crapsTrial) settleRoll(total int) {
	stakes := t.cfg.Stakes
	t.counts.Rolls++
	if total == 12 {
		t.counts.TwelveHits++
	}
	if fieldWinners&(1<<total) != 0 {
		t.counts.FieldWins++
	}
	if stakes.Field.IsPositive() {
		t.bankroll = t.bankroll.Add(stakes.Field.Mul(decimal.NewFromInt(fieldPayout[total])))
	}
	if stakes.Twelve.IsPositive() {
		t.bankroll = t.bankroll.Add(stakes.Twelve.Mul(decimal.NewFromInt(twelvePayout[total])))
	}
	t.tracef("round=%d roll=%d d=%d bankroll=%s", t.counts.Rounds, t.counts.Rolls, total, t.bankroll)

	if total != 7 {
		t.numbers |= 1 << total
		return
	}

	if t.numbers&lowNumbers == lowNumbers {
		t.counts.LowHits++
		t.bankroll = t.bankroll.Add(stakes.Low.Mul(decimal.NewFromInt(numbersReturn)))
		t.tracef("round=%d side=low hit=true", t.counts.Rounds)
	}
	if t.numbers&highNumbers == highNumbers {
		t.counts.HighHits++
		t.bankroll = t.bankroll.Add(stakes.High.Mul(decimal.NewFromInt(numbersReturn)))
		t.tracef("round=%d side=high hit=true", t.counts.Rounds)
	}
	if t.numbers&allNumbers == allNumbers {
		t.counts.AllHits++
		t.bankroll = t.bankroll.Add(stakes.All.Mul(decimal.NewFromInt(allNumbersReturn)))
		t.tracef("round=%d side=all hit=true", t.counts.Rounds)
	}
	t.numbers = 0
	t.bankroll = t.bankroll.Sub(stakes.sideBets())
}
