package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/MJE43/gamesim/internal/engine"
)

type fixedSource struct{ values []int }

func (s *fixedSource) UniformInt(low, high int) (int, error) {
	if len(s.values) == 0 {
		return 0, errors.New("out of values")
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

func (s *fixedSource) Shuffle(int, func(i, j int)) {}

func TestGenerateCounts(t *testing.T) {
	for index := uint64(0); index < 50; index++ {
		src, err := engine.NewTrialSource(engine.SourcePCG, 1, "duet", index)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Generate(src, DefaultSpies, DefaultAssassins)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if got := b.Count(Spy); got != DefaultSpies {
			t.Errorf("spies = %d, want %d", got, DefaultSpies)
		}
		if got := b.Count(Assassin); got != DefaultAssassins {
			t.Errorf("assassins = %d, want %d", got, DefaultAssassins)
		}
		if got := b.Count(Empty); got != Size*Size-DefaultSpies-DefaultAssassins {
			t.Errorf("empty = %d", got)
		}
	}
}

func TestGenerateRedrawsOccupiedCells(t *testing.T) {
	// the second spy lands on (0,0) first and has to redraw
	src := &fixedSource{values: []int{0, 0, 0, 0, 4, 4, 0, 0, 2, 3}}
	b, err := Generate(src, 2, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.At(0, 0) != Spy || b.At(4, 4) != Spy || b.At(2, 3) != Assassin {
		t.Errorf("unexpected layout:\n%s", b)
	}
}

func TestGenerateFull(t *testing.T) {
	src := engine.NewPCGSource(3, 4)
	b, err := Generate(src, Size*Size, 0)
	if err != nil {
		t.Fatalf("filling the grid: %v", err)
	}
	if b.Count(Spy) != Size*Size {
		t.Errorf("spies = %d", b.Count(Spy))
	}

	if _, err := Generate(src, 20, 6); !errors.Is(err, ErrBoardFull) {
		t.Errorf("err = %v, want ErrBoardFull", err)
	}
	if _, err := Generate(src, -1, 0); err == nil {
		t.Error("negative count accepted")
	}
}

func TestString(t *testing.T) {
	src := &fixedSource{values: []int{0, 1, 4, 0}}
	b, err := Generate(src, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		" . S . . .",
		" . . . . .",
		" . . . . .",
		" . . . . .",
		" A . . . .",
	}, "\n") + "\n"
	if got := b.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}
