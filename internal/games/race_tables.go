package games

import "maps"

// defaultShortcuts is the classic 100-square board: eight ladders, eight chutes.
var defaultShortcuts = map[int]int{
	// ladders
	1:  38,
	4:  14,
	9:  31,
	21: 42,
	28: 84,
	51: 67,
	71: 91,
	80: 100,
	// chutes
	17: 7,
	54: 34,
	62: 19,
	64: 60,
	87: 24,
	93: 73,
	95: 75,
	98: 79,
}

// DefaultShortcuts returns a copy of the classic board's shortcut table.
func DefaultShortcuts() map[int]int {
	return maps.Clone(defaultShortcuts)
}
