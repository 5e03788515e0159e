package games

import "github.com/shopspring/decimal"

// Single-roll payout tables indexed by the dice total. An entry is the net
// result per unit staked: positive pays, negative loses the stake, 0 is no
// action.
var (
	fieldPayout  = [13]int64{0, 0, 2, 1, 1, -1, -1, -1, -1, 1, 1, 1, 2}
	twelvePayout = [13]int64{0, 0, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, 31}
)

// Multi-roll side bet returns, stake included.
const (
	numbersReturn    = 32  // low or high numbers, 31:1
	allNumbersReturn = 157 // all numbers, 156:1
)

// Target sets of the multi-roll side bets as bitmasks over dice totals.
const (
	lowNumbers  uint16 = 1<<2 | 1<<3 | 1<<4 | 1<<5 | 1<<6
	highNumbers uint16 = 1<<8 | 1<<9 | 1<<10 | 1<<11 | 1<<12
	allNumbers         = lowNumbers | highNumbers
)

// fieldWinners are the totals a field bet wins on.
const fieldWinners uint16 = 1<<2 | 1<<3 | 1<<4 | 1<<9 | 1<<10 | 1<<11 | 1<<12

// ratio is an odds multiplier num/den.
type ratio struct {
	num, den int64
}

// True odds paid on a winning odds bet, by point.
var (
	passOdds = map[int]ratio{
		4: {2, 1}, 10: {2, 1},
		5: {3, 2}, 9: {3, 2},
		6: {6, 5}, 8: {6, 5},
	}
	dontPassOdds = map[int]ratio{
		4: {1, 2}, 10: {1, 2},
		5: {2, 3}, 9: {2, 3},
		6: {5, 6}, 8: {5, 6},
	}
)

// apply returns stake × num / den. Multiplying first keeps the result exact
// whenever the stake divides evenly.
func (r ratio) apply(stake decimal.Decimal) decimal.Decimal {
	return stake.Mul(decimal.NewFromInt(r.num)).Div(decimal.NewFromInt(r.den))
}
