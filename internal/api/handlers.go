package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/gamesim/internal/games"
	"github.com/MJE43/gamesim/internal/report"
	"github.com/MJE43/gamesim/internal/sim"
)

// maxBodyBytes caps the request body.
const maxBodyBytes = 1 << 20

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	specs := games.List()
	s.logger.Printf("games_request total_games=%d", len(specs))
	s.writeJSON(w, http.StatusOK, GamesResponse{Games: specs, EngineVersion: EngineVersion})
}

// handleSimulate runs a batch and responds with its summaries.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "game")

	var req SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.errors.HandleValidation(w, r, "body", fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if err := ValidateSimulateRequest(&req); err != nil {
		s.errors.HandleValidation(w, r, errorField(err), err)
		return
	}

	game, err := games.New(id, bytes.TrimSpace(req.Config))
	if err != nil {
		ctx := map[string]any{"game": id}
		if errors.Is(err, games.ErrUnknownGame) {
			s.errors.Handle(w, r, http.StatusNotFound, ErrTypeGameNotFound, err, ctx)
			return
		}
		s.errors.Handle(w, r, http.StatusBadRequest, ErrTypeInvalidConfig, err, ctx)
		return
	}
	if err := ValidateGameLimits(game); err != nil {
		s.errors.HandleValidation(w, r, errorField(err), err)
		return
	}

	s.logger.Printf("simulate_request game=%s trials=%d rng=%s workers=%d seeded=%t",
		id, req.Trials, req.RNG, req.Workers, req.Seed != nil)

	batch, err := s.runner.Run(r.Context(), sim.Request{
		Game:    game,
		Trials:  req.Trials,
		Seed:    req.Seed,
		Source:  req.RNG,
		Workers: req.Workers,
	})
	if err != nil {
		ctx := map[string]any{"game": id, "trials": req.Trials}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			s.errors.Handle(w, r, http.StatusRequestTimeout, ErrTypeTimeout, err, ctx)
		case errors.Is(err, context.Canceled):
			// client went away; nobody is listening
			s.logger.Printf("simulate_cancelled game=%s", id)
		default:
			s.errors.Handle(w, r, http.StatusInternalServerError, ErrTypeInternal, err, ctx)
		}
		return
	}

	doc, err := report.NewDocument(game, batch)
	if err != nil {
		s.errors.Handle(w, r, http.StatusInternalServerError, ErrTypeInternal, err, map[string]any{"game": id})
		return
	}

	s.logger.Printf("simulate_completed game=%s run_id=%s trials=%d duration_ms=%d",
		id, doc.RunID, doc.Trials, doc.DurationMS)
	s.writeJSON(w, http.StatusOK, doc)
}
