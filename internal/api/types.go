package api

import (
	"encoding/json"
	"time"

	"github.com/MJE43/gamesim/internal/games"
	"github.com/MJE43/gamesim/internal/sim"
)

// EngineVersion is reported on every response.
const EngineVersion = sim.EngineVersion

// SimulateRequest is the body of POST /api/v1/simulate/{game}.
type SimulateRequest struct {
	Trials  int    `json:"trials"`
	Seed    *int64 `json:"seed,omitempty"`
	RNG     string `json:"rng,omitempty"`
	Workers int    `json:"workers,omitempty"`
	// Config overrides the game's default configuration field by field.
	Config json.RawMessage `json:"config,omitempty"`
}

// GamesResponse lists the registered games.
type GamesResponse struct {
	Games         []games.GameSpec `json:"games"`
	EngineVersion string           `json:"engine_version"`
}

// EngineError is the JSON body of every error response.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func (e EngineError) Error() string { return e.Type + ": " + e.Message }

// Error types.
const (
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidConfig = "invalid_config"
	ErrTypeGameNotFound  = "game_not_found"
	ErrTypeTimeout       = "timeout"
	ErrTypeInternal      = "internal_error"
)

func newEngineError(errType, message, requestID string, context map[string]any) EngineError {
	return EngineError{
		Type:      errType,
		Message:   message,
		Context:   context,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
