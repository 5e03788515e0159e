package sim

import "errors"

var (
	ErrNoTrials = errors.New("trial count must be positive")
	ErrNoGame   = errors.New("no game to simulate")
)
