package games

import (
	"slices"

	"github.com/MJE43/gamesim/internal/engine"
)

// Card ranks run from two to ace; J=11, Q=12, K=13, A=14.
const (
	MinRank  = 2
	MaxRank  = 14
	DeckSize = 52
)

// newDeck returns a standard 52-card deck of ranks, four of each.
func newDeck() []int {
	deck := make([]int, 0, DeckSize)
	for suit := 0; suit < 4; suit++ {
		for rank := MinRank; rank <= MaxRank; rank++ {
			deck = append(deck, rank)
		}
	}
	return deck
}

// shuffled shuffles cards in place and returns them.
func shuffled(src engine.Source, cards []int) []int {
	src.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// deal shuffles a fresh deck and splits it evenly between two players.
func deal(src engine.Source) ([]int, []int) {
	deck := shuffled(src, newDeck())
	half := len(deck) / 2
	return slices.Clone(deck[:half]), slices.Clone(deck[half:])
}
