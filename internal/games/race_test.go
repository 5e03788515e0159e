package games

import (
	"encoding/json"
	"maps"
	"testing"

	"github.com/MJE43/gamesim/internal/engine"
)

func newRaceTrial(t *testing.T, shortcuts map[int]int, src engine.Source) *raceTrial {
	t.Helper()
	game, err := NewRace(RaceConfig{Shortcuts: shortcuts})
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}
	tr, err := game.NewTrial(src)
	if err != nil {
		t.Fatalf("NewTrial: %v", err)
	}
	return tr.(*raceTrial)
}

func TestRaceStep(t *testing.T) {
	tests := []struct {
		name      string
		shortcuts map[int]int
		start     int
		roll      int
		want      int
		shortcut  bool
	}{
		{"ladder", map[int]int{1: 38}, 0, 1, 38, true},
		{"chute", map[int]int{17: 7}, 12, 5, 7, true},
		{"plain move", map[int]int{1: 38}, 0, 2, 2, false},
		{"overshoot forfeits", nil, 97, 5, 97, false},
		{"exact finish", nil, 94, 6, 100, false},
		{"ladder to finish", map[int]int{80: 100}, 77, 3, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trial := newRaceTrial(t, tt.shortcuts, script(tt.roll))
			trial.position = tt.start

			if _, done, err := trial.Advance(); err != nil || done {
				t.Fatalf("Advance: done=%v err=%v", done, err)
			}
			if trial.position != tt.want {
				t.Errorf("position = %d, want %d", trial.position, tt.want)
			}
			if got := trial.shortcuts == 1; got != tt.shortcut {
				t.Errorf("shortcut taken = %v, want %v", got, tt.shortcut)
			}
			if trial.turns != 1 {
				t.Errorf("turns = %d, want 1", trial.turns)
			}
		})
	}
}

func TestRaceRunsToFinish(t *testing.T) {
	// 1->38, 44, 50, 51->67, 71->91, 97, 100
	trial := newRaceTrial(t, DefaultShortcuts(), script(1, 6, 6, 1, 4, 6, 3))
	outcome, err := RunTrial(trial)
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	want := RaceOutcome{Turns: 7, Shortcuts: 3}
	if outcome != want {
		t.Errorf("outcome = %+v, want %+v", outcome, want)
	}
}

func TestRaceLaddersNeverMoveBack(t *testing.T) {
	ladders := map[int]int{}
	for trigger, dest := range DefaultShortcuts() {
		if dest > trigger {
			ladders[trigger] = dest
		}
	}
	for index := uint64(0); index < 100; index++ {
		src, err := engine.NewTrialSource(engine.SourcePCG, 11, "race", index)
		if err != nil {
			t.Fatal(err)
		}
		trial := newRaceTrial(t, ladders, src)
		for {
			before := trial.position
			_, done, err := trial.Advance()
			if err != nil {
				t.Fatalf("trial %d: %v", index, err)
			}
			if done {
				break
			}
			if trial.position < before {
				t.Fatalf("trial %d moved back from %d to %d", index, before, trial.position)
			}
		}
		if trial.position != FinishSquare {
			t.Errorf("trial %d ended on %d", index, trial.position)
		}
	}
}

func TestRaceDefaultBoardTerminates(t *testing.T) {
	game, err := NewRace(DefaultRaceConfig())
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}
	for index := uint64(0); index < 500; index++ {
		src, _ := engine.NewTrialSource(engine.SourcePCG, 3, "race", index)
		tr, _ := game.NewTrial(src)
		outcome, err := RunTrial(tr)
		if err != nil {
			t.Fatalf("trial %d: %v", index, err)
		}
		// no shortcut reaches 100 in fewer than seven rolls
		if o := outcome.(RaceOutcome); o.Turns < 7 {
			t.Errorf("trial %d finished in %d turns", index, o.Turns)
		}
	}
}

func TestRaceConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		shortcuts map[int]int
		wantErr   bool
	}{
		{"default", DefaultShortcuts(), false},
		{"empty", map[int]int{}, false},
		{"trigger zero", map[int]int{0: 10}, true},
		{"trigger on finish", map[int]int{100: 10}, true},
		{"destination past finish", map[int]int{50: 101}, true},
		{"negative destination", map[int]int{50: -1}, true},
		{"self loop", map[int]int{50: 50}, true},
		{"trapped", map[int]int{94: 90, 95: 90, 96: 90, 97: 90, 98: 90, 99: 90}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RaceConfig{Shortcuts: tt.shortcuts}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRaceCopiesShortcuts(t *testing.T) {
	table := map[int]int{1: 38}
	game, err := NewRace(RaceConfig{Shortcuts: table})
	if err != nil {
		t.Fatal(err)
	}
	table[2] = 50
	if _, ok := game.Config().Shortcuts[2]; ok {
		t.Error("game shares the caller's shortcut map")
	}
}

func TestParseShortcuts(t *testing.T) {
	got, err := ParseShortcuts(" 1:38, 4:14 ,17:7,")
	if err != nil {
		t.Fatalf("ParseShortcuts: %v", err)
	}
	want := map[int]int{1: 38, 4: 14, 17: 7}
	if !maps.Equal(got, want) {
		t.Errorf("ParseShortcuts = %v, want %v", got, want)
	}
	if s := FormatShortcuts(want); s != "1:38,4:14,17:7" {
		t.Errorf("FormatShortcuts = %q", s)
	}

	for _, bad := range []string{"1-38", "x:38", "1:y", "1:38,1:40"} {
		if _, err := ParseShortcuts(bad); err == nil {
			t.Errorf("ParseShortcuts(%q) succeeded", bad)
		}
	}

	parsed, err := ParseShortcuts(FormatShortcuts(DefaultShortcuts()))
	if err != nil || !maps.Equal(parsed, DefaultShortcuts()) {
		t.Errorf("default table does not survive formatting: %v %v", parsed, err)
	}
}

func TestRaceFactoryConfig(t *testing.T) {
	game, err := New("race", json.RawMessage(`{"shortcuts":{"1":38}}`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := game.(*Race).Config().Shortcuts; !maps.Equal(got, map[int]int{1: 38}) {
		t.Errorf("shortcuts = %v", got)
	}

	game, err = New("race", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := game.(*Race).Config().Shortcuts; !maps.Equal(got, DefaultShortcuts()) {
		t.Errorf("default shortcuts = %v", got)
	}
}
