// Package board lays out a one-player Codenames Duet key card: a 5x5 grid
// with spies and assassins placed on distinct random cells.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MJE43/gamesim/internal/engine"
)

// ErrBoardFull is returned when more markers are requested than the grid
// has empty cells.
var ErrBoardFull = errors.New("board full")

// Size is the width and height of the grid.
const Size = 5

// Cell markers.
const (
	Empty    byte = '.'
	Spy      byte = 'S'
	Assassin byte = 'A'
)

// Default marker counts.
const (
	DefaultSpies     = 9
	DefaultAssassins = 3
)

// Board is a Size x Size grid of markers indexed [row][col].
type Board struct {
	cells [Size][Size]byte
	empty int
}

func newBoard() *Board {
	b := &Board{empty: Size * Size}
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = Empty
		}
	}
	return b
}

// Generate places spies first and then assassins.
func Generate(src engine.Source, spies, assassins int) (*Board, error) {
	if spies < 0 || assassins < 0 {
		return nil, fmt.Errorf("marker counts must be >= 0, got %d spies and %d assassins", spies, assassins)
	}
	b := newBoard()
	if err := b.place(src, Spy, spies); err != nil {
		return nil, err
	}
	if err := b.place(src, Assassin, assassins); err != nil {
		return nil, err
	}
	return b, nil
}

// place drops count markers on empty cells, redrawing coordinates that land
// on an occupied cell.
func (b *Board) place(src engine.Source, marker byte, count int) error {
	if count > b.empty {
		return fmt.Errorf("%w: %d %c markers, %d empty cells", ErrBoardFull, count, marker, b.empty)
	}
	for placed := 0; placed < count; {
		r, err := src.UniformInt(0, Size-1)
		if err != nil {
			return err
		}
		c, err := src.UniformInt(0, Size-1)
		if err != nil {
			return err
		}
		if b.cells[r][c] != Empty {
			continue
		}
		b.cells[r][c] = marker
		b.empty--
		placed++
	}
	return nil
}

// At returns the marker at row r, column c.
func (b *Board) At(r, c int) byte { return b.cells[r][c] }

// Count returns how many cells hold marker.
func (b *Board) Count(marker byte) int {
	n := 0
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c] == marker {
				n++
			}
		}
	}
	return n
}

// String renders one row per line, each cell preceded by a space.
func (b *Board) String() string {
	var sb strings.Builder
	for r := range b.cells {
		for c := range b.cells[r] {
			sb.WriteByte(' ')
			sb.WriteByte(b.cells[r][c])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
