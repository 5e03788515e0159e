// Package report renders simulation batches for people and for machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MJE43/gamesim/internal/games"
	"github.com/MJE43/gamesim/internal/sim"
	"github.com/MJE43/gamesim/internal/stats"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for a format other than text or json.
var ErrUnknownFormat = errors.New("unknown report format")

// Document is the machine-readable form of a batch.
type Document struct {
	RunID         string              `json:"run_id"`
	Game          string              `json:"game"`
	Trials        int                 `json:"trials"`
	Seed          int64               `json:"seed"`
	RNG           string              `json:"rng"`
	Workers       int                 `json:"workers"`
	DurationMS    int64               `json:"duration_ms"`
	EngineVersion string              `json:"engine_version"`
	Config        any                 `json:"config,omitempty"`
	Summaries     []sim.MetricSummary `json:"summaries"`
}

// NewDocument reduces batch into a Document.
func NewDocument(game games.Game, batch *sim.Batch) (Document, error) {
	summaries, err := batch.Summaries()
	if err != nil {
		return Document{}, err
	}
	return Document{
		RunID:         batch.RunID.String(),
		Game:          batch.Game.ID,
		Trials:        batch.Trials,
		Seed:          batch.Seed,
		RNG:           batch.Source,
		Workers:       batch.Workers,
		DurationMS:    batch.Duration.Milliseconds(),
		EngineVersion: sim.EngineVersion,
		Config:        configOf(game),
		Summaries:     summaries,
	}, nil
}

func configOf(game games.Game) any {
	switch g := game.(type) {
	case *games.War:
		return g.Config()
	case *games.Race:
		return g.Config()
	case *games.Craps:
		return g.Config()
	}
	return nil
}

// Write renders batch to w in format.
func Write(w io.Writer, format string, game games.Game, batch *sim.Batch) error {
	switch format {
	case FormatText, "":
		return Text(w, game, batch)
	case FormatJSON:
		return JSON(w, game, batch)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// JSON writes the batch Document as indented JSON.
func JSON(w io.Writer, game games.Game, batch *sim.Batch) error {
	doc, err := NewDocument(game, batch)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Text writes the human-readable report for game.
func Text(w io.Writer, game games.Game, batch *sim.Batch) error {
	r := &textReport{
		p:     message.NewPrinter(language.English),
		batch: batch,
	}
	var err error
	switch g := game.(type) {
	case *games.War:
		err = r.war()
	case *games.Race:
		err = r.race()
	case *games.Craps:
		err = r.craps(g.Config())
	default:
		err = r.generic()
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, r.sb.String())
	return err
}

type textReport struct {
	p     *message.Printer
	sb    strings.Builder
	batch *sim.Batch
}

func (r *textReport) printf(format string, args ...any) {
	r.p.Fprintf(&r.sb, format, args...)
}

func (r *textReport) summary(metric string) (stats.Summary, error) {
	s, err := stats.Summarize(r.batch.Series[metric])
	if err != nil {
		return stats.Summary{}, fmt.Errorf("%s: %w", metric, err)
	}
	return s, nil
}

// distribution prints the standard percentile block. unit formats each value.
func (r *textReport) distribution(s stats.Summary, withMode bool, unit string) {
	r.printf("Minimum: "+unit+"\n", s.Min)
	r.printf("5th Percentile: "+unit+"\n", s.At(5))
	r.printf("25th Percentile: "+unit+"\n", s.At(25))
	if withMode {
		r.printf("Mode: "+unit+" (%d occurrences)\n", s.Mode, s.ModeCount)
	}
	r.printf("Median: "+unit+"\n", s.At(50))
	r.printf("Average: %.2f\n", s.Mean)
	r.printf("75th Percentile: "+unit+"\n", s.At(75))
	r.printf("95th Percentile: "+unit+"\n", s.At(95))
	r.printf("Maximum: "+unit+"\n", s.Max)
}

func (r *textReport) header() {
	r.printf("Over %d runs (seed %s, rng %s):\n", r.batch.Trials, strconv.FormatInt(r.batch.Seed, 10), r.batch.Source)
}

func (r *textReport) war() error {
	turns, err := r.summary("turns")
	if err != nil {
		return err
	}
	seconds, err := r.summary("seconds")
	if err != nil {
		return err
	}
	wars, err := r.summary("wars")
	if err != nil {
		return err
	}

	r.header()
	r.printf("=== Turn Stats ===\n")
	r.distribution(turns, false, "%.0f")
	r.printf("=== Time Stats ===\n")
	r.distribution(seconds, false, "%.0f")
	r.printf("=== War Stats ===\n")
	r.distribution(wars, false, "%.0f")

	var winners [3]int
	for _, o := range r.batch.Outcomes {
		if wo, ok := o.(games.WarOutcome); ok && wo.Winner >= 0 && wo.Winner < len(winners) {
			winners[wo.Winner]++
		}
	}
	r.printf("=== Results ===\n")
	r.printf("Player 1 wins: %d (%.1f%%)\n", winners[1], r.percent(winners[1]))
	r.printf("Player 2 wins: %d (%.1f%%)\n", winners[2], r.percent(winners[2]))
	r.printf("Draws: %d (%.1f%%)\n", winners[0], r.percent(winners[0]))
	return nil
}

func (r *textReport) race() error {
	turns, err := r.summary("turns")
	if err != nil {
		return err
	}
	shortcuts, err := r.summary("shortcuts")
	if err != nil {
		return err
	}

	r.header()
	r.distribution(turns, true, "%.0f")
	r.printf("Shortcuts per game: %.2f average, %.0f maximum\n", shortcuts.Mean, shortcuts.Max)
	r.printf("=========\n")
	r.printf("Occurrence Graph:\n")
	r.occurrenceGraph(r.batch.Series["turns"])
	return nil
}

// occurrenceGraph prints one bar of x per integer value from the minimum to
// the maximum, including values that never occurred.
func (r *textReport) occurrenceGraph(values []float64) {
	bins := stats.Histogram(values)
	if len(bins) == 0 {
		return
	}
	counts := make(map[int]int, len(bins))
	for _, b := range bins {
		counts[int(b.Value)] += b.Count
	}
	lo, hi := int(bins[0].Value), int(bins[len(bins)-1].Value)
	for v := lo; v <= hi; v++ {
		r.sb.WriteString(fmt.Sprintf("%d:%s\n", v, strings.Repeat("x", counts[v])))
	}
}

func (r *textReport) craps(cfg games.CrapsConfig) error {
	bankroll, err := r.summary("bankroll")
	if err != nil {
		return err
	}
	rounds, err := r.summary("rounds")
	if err != nil {
		return err
	}
	n := r.batch.Trials

	r.printf("=== Craps Simulation Results ===\n")
	r.printf("Simulation mode: %s\n", cfg.Mode)
	r.printf("Strategy: %s\n", strategyName(cfg.Strategy))
	r.printf("Number of simulations: %d (seed %s, rng %s)\n", n, strconv.FormatInt(r.batch.Seed, 10), r.batch.Source)
	if cfg.Mode == games.ModeFixedRounds {
		r.printf("Rounds per simulation: %d\n", cfg.Rounds)
	} else {
		r.printf("Win threshold: $%+.2f\n", cfg.WinThreshold.InexactFloat64())
		r.printf("Loss threshold: $%+.2f\n", cfg.LossThreshold.InexactFloat64())
	}

	r.printf("\nBet amounts:\n")
	st := cfg.Stakes
	for _, bet := range []struct {
		label string
		stake float64
		on    bool
	}{
		{"Main bet (per round)", st.Line.InexactFloat64(), st.Line.IsPositive()},
		{"Odds bet (per round when point established)", st.Odds.InexactFloat64(), st.Odds.IsPositive()},
		{"Field bet (per dice roll)", st.Field.InexactFloat64(), st.Field.IsPositive()},
		{"Twelve bet (per dice roll)", st.Twelve.InexactFloat64(), st.Twelve.IsPositive()},
		{"Low numbers side bet (per cycle)", st.Low.InexactFloat64(), st.Low.IsPositive()},
		{"High numbers side bet (per cycle)", st.High.InexactFloat64(), st.High.IsPositive()},
		{"All numbers side bet (per cycle)", st.All.InexactFloat64(), st.All.IsPositive()},
	} {
		if bet.on {
			r.printf("  %s: $%.2f\n", bet.label, bet.stake)
		}
	}

	byStop := map[string]int{}
	var positive, negative, even int
	for _, v := range r.batch.Series["bankroll"] {
		switch {
		case v > 0:
			positive++
		case v < 0:
			negative++
		default:
			even++
		}
	}
	for _, o := range r.batch.Outcomes {
		if co, ok := o.(games.CrapsOutcome); ok {
			byStop[co.Stop]++
		}
	}

	if cfg.Mode == games.ModeFixedRounds {
		r.printf("\n=== Final Bankroll Distribution ===\n")
		r.distribution(bankroll, false, "$%.2f")
		r.printf("\nOutcomes:\n")
		r.printf("  Ended positive: %d (%.1f%%)\n", positive, r.percent(positive))
		r.printf("  Ended negative: %d (%.1f%%)\n", negative, r.percent(negative))
		r.printf("  Ended even: %d (%.1f%%)\n", even, r.percent(even))
	} else {
		r.printf("\n=== Threshold Outcomes ===\n")
		r.printf("  Hit WIN threshold: %d (%.1f%%)\n", byStop[games.StopWin], r.percent(byStop[games.StopWin]))
		r.printf("  Hit LOSS threshold: %d (%.1f%%)\n", byStop[games.StopLoss], r.percent(byStop[games.StopLoss]))
		if c := byStop[games.StopCap]; c > 0 {
			r.printf("  Incomplete (hit max rounds): %d (%.1f%%)\n", c, r.percent(c))
		}
		r.printf("\n=== Rounds Until Completion ===\n")
		r.distribution(rounds, false, "%.0f")
	}

	return r.betStatistics(st, rounds.Mean)
}

func (r *textReport) betStatistics(st games.CrapsStakes, avgRounds float64) error {
	mean := func(metric string) float64 {
		m, _ := stats.Mean(r.batch.Series[metric])
		return m
	}

	if st.Low.IsPositive() || st.High.IsPositive() || st.All.IsPositive() {
		r.printf("\n=== Side Bet Statistics (multi-roll) ===\n")
		for _, bet := range []struct {
			label  string
			metric string
			on     bool
		}{
			{"Low numbers (2-6)", "low_hits", st.Low.IsPositive()},
			{"High numbers (8-12)", "high_hits", st.High.IsPositive()},
			{"All numbers (2-6, 8-12)", "all_hits", st.All.IsPositive()},
		} {
			if !bet.on {
				continue
			}
			hits := mean(bet.metric)
			r.printf("%s:\n", bet.label)
			r.printf("  Average hits per simulation: %.1f\n", hits)
			if hits > 0 {
				r.printf("  Hit frequency: 1 in every %.1f rounds\n", avgRounds/hits)
			}
		}
	}

	if st.Twelve.IsPositive() || st.Field.IsPositive() {
		rolls := mean("rolls")
		r.printf("\n=== Single Roll Bet Statistics ===\n")
		r.printf("Average dice rolls per simulation: %.0f\n", rolls)
		for _, bet := range []struct {
			label  string
			metric string
			noun   string
			on     bool
		}{
			{"Twelve bet", "twelve_hits", "hits", st.Twelve.IsPositive()},
			{"Field bet", "field_wins", "wins", st.Field.IsPositive()},
		} {
			if !bet.on {
				continue
			}
			hits := mean(bet.metric)
			r.printf("\n%s:\n", bet.label)
			r.printf("  Average %s per simulation: %.1f\n", bet.noun, hits)
			if hits > 0 && rolls > 0 {
				r.printf("  Frequency: 1 in every %.1f rolls\n", rolls/hits)
				r.printf("  Win rate: %.2f%%\n", hits/rolls*100)
			}
		}
	}
	return nil
}

func (r *textReport) generic() error {
	r.header()
	for _, name := range r.batch.MetricOrder {
		s, err := r.summary(name)
		if err != nil {
			return err
		}
		r.printf("=== %s ===\n", name)
		r.distribution(s, true, "%.2f")
	}
	return nil
}

func (r *textReport) percent(n int) float64 {
	if r.batch.Trials == 0 {
		return 0
	}
	return float64(n) / float64(r.batch.Trials) * 100
}

func strategyName(s string) string {
	switch s {
	case games.StrategyPassLine:
		return "Pass Line"
	case games.StrategyDontPass:
		return "Don't Pass"
	}
	return s
}
