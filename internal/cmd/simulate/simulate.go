// Package simulate parses simulation command flags and runs one batch.
package simulate

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/MJE43/gamesim/internal/board"
	"github.com/MJE43/gamesim/internal/engine"
	"github.com/MJE43/gamesim/internal/games"
	"github.com/MJE43/gamesim/internal/platform/config"
	"github.com/MJE43/gamesim/internal/report"
	"github.com/MJE43/gamesim/internal/sim"
)

// GameDuet lays out a Duet key card instead of running a batch.
const GameDuet = "duet"

// Commands lists the accepted game names.
var Commands = []string{"war", "race", "craps", GameDuet}

var defaultTrials = map[string]int{
	"war":   1000,
	"race":  5000,
	"craps": 10000,
}

// Config holds simulate command configuration.
type Config struct {
	Game string

	Trials  int    `env:"TRIALS"`
	Workers int    `env:"WORKERS"`
	RNG     string `env:"RNG" envDefault:"pcg"`
	Format  string `env:"FORMAT" envDefault:"text"`
	Seed    int64  `env:"SEED"`
	Verbose bool   `env:"VERBOSE"`

	SecondsPerTurn int `env:"WAR_SECONDS_PER_TURN" envDefault:"5"`
	SecondsPerWar  int `env:"WAR_SECONDS_PER_WAR" envDefault:"15"`

	Shortcuts string `env:"RACE_SHORTCUTS"`

	Mode          string          `env:"CRAPS_MODE" envDefault:"threshold"`
	Rounds        int             `env:"CRAPS_ROUNDS" envDefault:"5000"`
	WinThreshold  decimal.Decimal `env:"CRAPS_WIN_THRESHOLD" envDefault:"100"`
	LossThreshold decimal.Decimal `env:"CRAPS_LOSS_THRESHOLD" envDefault:"-100"`
	MaxRounds     int             `env:"CRAPS_MAX_ROUNDS" envDefault:"100000"`
	Strategy      string          `env:"CRAPS_STRATEGY" envDefault:"dont_pass"`
	BetLine       decimal.Decimal `env:"CRAPS_BET_LINE" envDefault:"3"`
	BetOdds       decimal.Decimal `env:"CRAPS_BET_ODDS" envDefault:"3"`
	BetLow        decimal.Decimal `env:"CRAPS_BET_LOW" envDefault:"1"`
	BetHigh       decimal.Decimal `env:"CRAPS_BET_HIGH" envDefault:"1"`
	BetAll        decimal.Decimal `env:"CRAPS_BET_ALL" envDefault:"0"`
	BetField      decimal.Decimal `env:"CRAPS_BET_FIELD" envDefault:"0"`
	BetTwelve     decimal.Decimal `env:"CRAPS_BET_TWELVE" envDefault:"0"`
	Debug         bool            `env:"CRAPS_DEBUG"`

	Spies     int `env:"DUET_SPIES" envDefault:"9"`
	Assassins int `env:"DUET_ASSASSINS" envDefault:"3"`
}

// ParseConfig parses environment and flags for game into a Config. Only the
// flags of the chosen game are registered.
func ParseConfig(game string, fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if !isCommand(game) {
		return Config{}, fmt.Errorf("unknown game %q (want one of %s)", game, strings.Join(Commands, ", "))
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Game = game

	fs.StringVar(&cfg.RNG, "rng", cfg.RNG, "Random source: pcg or hmac")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Master seed; 0 picks a random one")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Report format: text or json")

	switch game {
	case GameDuet:
		fs.IntVar(&cfg.Spies, "spies", cfg.Spies, "Number of spies to place")
		fs.IntVar(&cfg.Assassins, "assassins", cfg.Assassins, "Number of assassins to place")
	default:
		fs.IntVar(&cfg.Trials, "trials", cfg.Trials, fmt.Sprintf("Number of trials (default %d)", defaultTrials[game]))
		fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Worker goroutines; 0 uses every CPU")
		fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Log batch progress to stderr")
	}

	switch game {
	case "war":
		fs.IntVar(&cfg.SecondsPerTurn, "seconds-per-turn", cfg.SecondsPerTurn, "Seconds each turn takes")
		fs.IntVar(&cfg.SecondsPerWar, "seconds-per-war", cfg.SecondsPerWar, "Extra seconds each war takes")
	case "race":
		fs.StringVar(&cfg.Shortcuts, "shortcuts", cfg.Shortcuts, "Shortcut table as trigger:destination pairs, e.g. 1:38,17:7")
	case "craps":
		fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Termination mode: fixed_rounds or threshold")
		fs.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Rounds per trial in fixed_rounds mode")
		fs.TextVar(&cfg.WinThreshold, "win-threshold", cfg.WinThreshold, "Stop once the bankroll reaches this amount")
		fs.TextVar(&cfg.LossThreshold, "loss-threshold", cfg.LossThreshold, "Stop once the bankroll falls to this amount")
		fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "Round cap in threshold mode")
		fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "Line bet: pass_line or dont_pass")
		fs.TextVar(&cfg.BetLine, "bet-line", cfg.BetLine, "Line bet per round")
		fs.TextVar(&cfg.BetOdds, "bet-odds", cfg.BetOdds, "Odds bet once a point is set")
		fs.TextVar(&cfg.BetLow, "bet-low", cfg.BetLow, "Low numbers side bet per cycle")
		fs.TextVar(&cfg.BetHigh, "bet-high", cfg.BetHigh, "High numbers side bet per cycle")
		fs.TextVar(&cfg.BetAll, "bet-all", cfg.BetAll, "All numbers side bet per cycle")
		fs.TextVar(&cfg.BetField, "bet-field", cfg.BetField, "Field bet per roll")
		fs.TextVar(&cfg.BetTwelve, "bet-twelve", cfg.BetTwelve, "Twelve bet per roll")
		fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Trace every roll to stderr; runs trials one at a time")
	}

	if err := config.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isCommand(game string) bool {
	for _, c := range Commands {
		if c == game {
			return true
		}
	}
	return false
}

// Validate reports every invalid setting, including the game's own rules.
func (c Config) Validate() error {
	var err error
	switch c.RNG {
	case engine.SourcePCG, engine.SourceHMAC:
	default:
		err = multierr.Append(err, fmt.Errorf("rng must be %q or %q, got %q", engine.SourcePCG, engine.SourceHMAC, c.RNG))
	}
	switch c.Format {
	case report.FormatText, report.FormatJSON:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", report.ErrUnknownFormat, c.Format))
	}

	if c.Game == GameDuet {
		if c.Spies < 0 || c.Assassins < 0 {
			err = multierr.Append(err, fmt.Errorf("spies and assassins must be >= 0"))
		} else if c.Spies+c.Assassins > board.Size*board.Size {
			err = multierr.Append(err, fmt.Errorf("%w: %d markers on %d cells", board.ErrBoardFull, c.Spies+c.Assassins, board.Size*board.Size))
		}
		return err
	}

	if c.Trials < 0 {
		err = multierr.Append(err, fmt.Errorf("trials must be >= 0, got %d", c.Trials))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if _, gameErr := c.NewGame(); gameErr != nil {
		err = multierr.Append(err, gameErr)
	}
	return err
}

// CrapsConfig returns the craps settings.
func (c Config) CrapsConfig() games.CrapsConfig {
	return games.CrapsConfig{
		Mode:          c.Mode,
		Rounds:        c.Rounds,
		WinThreshold:  c.WinThreshold,
		LossThreshold: c.LossThreshold,
		MaxRounds:     c.MaxRounds,
		Strategy:      c.Strategy,
		Stakes: games.CrapsStakes{
			Line:   c.BetLine,
			Odds:   c.BetOdds,
			Low:    c.BetLow,
			High:   c.BetHigh,
			All:    c.BetAll,
			Field:  c.BetField,
			Twelve: c.BetTwelve,
		},
	}
}

// NewGame builds the configured game.
func (c Config) NewGame() (games.Game, error) {
	switch c.Game {
	case "war":
		return games.NewWar(games.WarConfig{SecondsPerTurn: c.SecondsPerTurn, SecondsPerWar: c.SecondsPerWar})
	case "race":
		shortcuts := games.DefaultShortcuts()
		if strings.TrimSpace(c.Shortcuts) != "" {
			var err error
			if shortcuts, err = games.ParseShortcuts(c.Shortcuts); err != nil {
				return nil, err
			}
		}
		return games.NewRace(games.RaceConfig{Shortcuts: shortcuts})
	case "craps":
		return games.NewCraps(c.CrapsConfig())
	}
	return nil, fmt.Errorf("%w: %q", games.ErrUnknownGame, c.Game)
}

// Run executes the command, writing the report to stdout and diagnostics to
// stderr.
func Run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	var seed *int64
	if cfg.Seed != 0 {
		seed = &cfg.Seed
	}
	if cfg.Game == GameDuet {
		return runDuet(cfg, seed, stdout)
	}

	game, err := cfg.NewGame()
	if err != nil {
		return err
	}
	if craps, ok := game.(*games.Craps); ok && cfg.Debug {
		game = craps.WithTrace(log.New(stderr, "[CRAPS] ", 0))
	}

	opts := []sim.Option{sim.WithWorkers(cfg.Workers)}
	if cfg.Verbose {
		logger := log.New(stderr, "[SIM] ", log.LstdFlags)
		opts = append(opts,
			sim.WithLogger(logger),
			sim.WithProgress(func(done, total int) {
				logger.Printf("progress completed=%d total=%d", done, total)
			}),
		)
	}

	trials := cfg.Trials
	if trials == 0 {
		trials = defaultTrials[cfg.Game]
	}
	batch, err := sim.NewRunner(opts...).Run(ctx, sim.Request{
		Game:   game,
		Trials: trials,
		Seed:   seed,
		Source: cfg.RNG,
	})
	if err != nil {
		return fmt.Errorf("simulate %s: %w", cfg.Game, err)
	}
	return report.Write(stdout, cfg.Format, game, batch)
}

func runDuet(cfg Config, seed *int64, stdout io.Writer) error {
	master := int64(0)
	if seed != nil {
		master = *seed
	} else {
		var err error
		if master, err = engine.NewSeed(); err != nil {
			return err
		}
	}
	src, err := engine.NewTrialSource(cfg.RNG, master, GameDuet, 0)
	if err != nil {
		return err
	}
	b, err := board.Generate(src, cfg.Spies, cfg.Assassins)
	if err != nil {
		return err
	}
	if cfg.Format == report.FormatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Seed int64    `json:"seed"`
			Rows []string `json:"rows"`
		}{master, strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")})
	}
	_, err = io.WriteString(stdout, b.String())
	return err
}
