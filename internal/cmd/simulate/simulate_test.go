package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/gamesim/internal/board"
	"github.com/MJE43/gamesim/internal/games"
)

func parse(t *testing.T, game string, args ...string) Config {
	t.Helper()
	cfg, err := ParseConfig(game, flag.NewFlagSet(game, flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse %s %v: %v", game, args, err)
	}
	return cfg
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := parse(t, "craps")
	if cfg.RNG != "pcg" || cfg.Format != "text" || cfg.Trials != 0 || cfg.Seed != 0 {
		t.Errorf("common defaults = %+v", cfg)
	}
	got := cfg.CrapsConfig()
	want := games.DefaultCrapsConfig()
	if got.Mode != want.Mode || got.Strategy != want.Strategy || got.MaxRounds != want.MaxRounds {
		t.Errorf("craps config = %+v, want %+v", got, want)
	}
	if !got.WinThreshold.Equal(want.WinThreshold) || !got.LossThreshold.Equal(want.LossThreshold) {
		t.Errorf("thresholds = %s/%s", got.WinThreshold, got.LossThreshold)
	}
	if !got.Stakes.Line.Equal(want.Stakes.Line) || !got.Stakes.Low.Equal(want.Stakes.Low) {
		t.Errorf("stakes = %+v", got.Stakes)
	}
}

func TestParseConfigFlags(t *testing.T) {
	cfg := parse(t, "craps", "-trials", "50", "-seed", "9", "-rng", "hmac",
		"-mode", "fixed_rounds", "-rounds", "20", "-bet-field", "2.5", "-strategy", "pass_line")
	if cfg.Trials != 50 || cfg.Seed != 9 || cfg.RNG != "hmac" {
		t.Errorf("common flags = %+v", cfg)
	}
	if cfg.Mode != games.ModeFixedRounds || cfg.Rounds != 20 || cfg.Strategy != games.StrategyPassLine {
		t.Errorf("craps flags = %+v", cfg)
	}
	if !cfg.BetField.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("bet-field = %s", cfg.BetField)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("GAMESIM_TRIALS", "321")
	t.Setenv("GAMESIM_WAR_SECONDS_PER_TURN", "7")
	cfg := parse(t, "war", "-seconds-per-war", "30")
	if cfg.Trials != 321 || cfg.SecondsPerTurn != 7 || cfg.SecondsPerWar != 30 {
		t.Errorf("war config = %+v", cfg)
	}
}

func TestParseConfigFlagsArePerGame(t *testing.T) {
	_, err := ParseConfig("war", flag.NewFlagSet("war", flag.ContinueOnError), []string{"-bet-line", "5"})
	if err == nil {
		t.Fatal("expected error for a craps flag on war")
	}
	_, err = ParseConfig("duet", flag.NewFlagSet("duet", flag.ContinueOnError), []string{"-trials", "5"})
	if err == nil {
		t.Fatal("expected error for -trials on duet")
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		game string
		args []string
		want []string
	}{
		{"unknown game", "poker", nil, []string{`unknown game "poker"`}},
		{"bad rng and format", "war", []string{"-rng", "mt", "-format", "xml"}, []string{"rng must be", "xml"}},
		{"negative trials", "race", []string{"-trials", "-1"}, []string{"trials must be >= 0"}},
		{"bad shortcuts", "race", []string{"-shortcuts", "1:38,1:7"}, []string{"1"}},
		{"bad craps mode", "craps", []string{"-mode", "forever"}, []string{"forever"}},
		{"bad decimal", "craps", []string{"-bet-line", "three"}, []string{"bet-line"}},
		{"duet overflow", "duet", []string{"-spies", "20", "-assassins", "6"}, []string{"board full"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet(tt.game, flag.ContinueOnError)
			fs.SetOutput(&bytes.Buffer{})
			_, err := ParseConfig(tt.game, fs, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q missing %q", err, w)
				}
			}
		})
	}
}

func TestRunWar(t *testing.T) {
	cfg := parse(t, "war", "-trials", "200", "-seed", "77")
	var out, errOut bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Over 200 runs (seed 77, rng pcg):") {
		t.Errorf("report = %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
}

func TestRunDefaultTrials(t *testing.T) {
	cfg := parse(t, "race", "-seed", "3", "-format", "json")
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var doc struct {
		Trials int   `json:"trials"`
		Seed   int64 `json:"seed"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Trials != 5000 || doc.Seed != 3 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestRunIsReproducible(t *testing.T) {
	cfg := parse(t, "craps", "-trials", "100", "-seed", "11", "-format", "json", "-workers", "4")
	var first, second bytes.Buffer
	for _, out := range []*bytes.Buffer{&first, &second} {
		if err := Run(context.Background(), cfg, out, &bytes.Buffer{}); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	var a, b struct {
		Summaries json.RawMessage `json:"summaries"`
	}
	if err := json.Unmarshal(first.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(second.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Summaries, b.Summaries) {
		t.Error("same seed produced different summaries")
	}
}

func TestRunVerboseAndDebug(t *testing.T) {
	cfg := parse(t, "craps", "-trials", "2", "-seed", "5", "-mode", "fixed_rounds", "-rounds", "3", "-debug", "-v")
	var out, errOut bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"[CRAPS] round=1 roll=1", "[SIM] ", "batch_completed"} {
		if !strings.Contains(errOut.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut.String())
		}
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := parse(t, "war", "-trials", "1000", "-seed", "1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, cfg, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunDuet(t *testing.T) {
	cfg := parse(t, "duet", "-seed", "42", "-spies", "4", "-assassins", "2")
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	rows := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(rows) != board.Size {
		t.Fatalf("rows = %q", rows)
	}
	if got := strings.Count(out.String(), "S"); got != 4 {
		t.Errorf("spies = %d", got)
	}
	if got := strings.Count(out.String(), "A"); got != 2 {
		t.Errorf("assassins = %d", got)
	}

	var again bytes.Buffer
	if err := Run(context.Background(), cfg, &again, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if again.String() != out.String() {
		t.Error("same seed produced a different board")
	}
}

func TestRunDuetJSON(t *testing.T) {
	cfg := parse(t, "duet", "-seed", "8", "-format", "json")
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var doc struct {
		Seed int64    `json:"seed"`
		Rows []string `json:"rows"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Seed != 8 || len(doc.Rows) != board.Size {
		t.Errorf("doc = %+v", doc)
	}
}
