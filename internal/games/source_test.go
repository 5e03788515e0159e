package games

import (
	"errors"
	"fmt"
)

var errScriptExhausted = errors.New("script exhausted")

// scriptedSource returns queued values from UniformInt and leaves shuffled
// slices untouched, so tests control every random decision.
type scriptedSource struct {
	values []int
}

func script(values ...int) *scriptedSource {
	return &scriptedSource{values: values}
}

func (s *scriptedSource) UniformInt(low, high int) (int, error) {
	if len(s.values) == 0 {
		return 0, errScriptExhausted
	}
	v := s.values[0]
	s.values = s.values[1:]
	if v < low || v > high {
		return 0, fmt.Errorf("scripted value %d outside [%d, %d]", v, low, high)
	}
	return v, nil
}

func (s *scriptedSource) Shuffle(int, func(i, j int)) {}
