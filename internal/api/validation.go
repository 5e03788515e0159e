package api

import (
	"errors"
	"fmt"

	"github.com/MJE43/gamesim/internal/engine"
	"github.com/MJE43/gamesim/internal/games"
)

// Request limits.
const (
	MaxTrials  = 1_000_000
	MaxWorkers = 256

	// MaxCrapsRounds caps both rounds and max_rounds of a craps config.
	MaxCrapsRounds = 1_000_000
)

// fieldError names the request field that failed validation.
type fieldError struct {
	field string
	msg   string
}

func (e *fieldError) Error() string { return e.msg }

// ValidateSimulateRequest checks the batch parameters of req. The game config
// is validated by the game itself.
func ValidateSimulateRequest(req *SimulateRequest) error {
	if req.Trials <= 0 {
		return &fieldError{"trials", fmt.Sprintf("trials must be > 0, got %d", req.Trials)}
	}
	if req.Trials > MaxTrials {
		return &fieldError{"trials", fmt.Sprintf("trials too large (max %d)", MaxTrials)}
	}
	switch req.RNG {
	case "", engine.SourcePCG, engine.SourceHMAC:
	default:
		return &fieldError{"rng", fmt.Sprintf("rng must be %q or %q, got %q", engine.SourcePCG, engine.SourceHMAC, req.RNG)}
	}
	if req.Workers < 0 || req.Workers > MaxWorkers {
		return &fieldError{"workers", fmt.Sprintf("workers must be between 0 and %d, got %d", MaxWorkers, req.Workers)}
	}
	return nil
}

// ValidateGameLimits applies request limits to the decoded game config.
func ValidateGameLimits(game games.Game) error {
	craps, ok := game.(*games.Craps)
	if !ok {
		return nil
	}
	cfg := craps.Config()
	if cfg.Rounds > MaxCrapsRounds {
		return &fieldError{"config.rounds", fmt.Sprintf("rounds too large (max %d)", MaxCrapsRounds)}
	}
	if cfg.MaxRounds > MaxCrapsRounds {
		return &fieldError{"config.max_rounds", fmt.Sprintf("max_rounds too large (max %d)", MaxCrapsRounds)}
	}
	return nil
}

// errorField returns the request field err names, if any.
func errorField(err error) string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.field
	}
	return ""
}
