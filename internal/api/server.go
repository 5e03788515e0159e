package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/gamesim/internal/sim"
)

// DefaultTimeout bounds every request, simulation included.
const DefaultTimeout = 60 * time.Second

// Server serves simulations over HTTP.
type Server struct {
	runner  *sim.Runner
	logger  *log.Logger
	errors  *ErrorHandler
	timeout time.Duration
}

// NewServer creates a server running batches on runner. A nil logger
// discards log output.
func NewServer(runner *sim.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		runner:  runner,
		logger:  logger,
		errors:  NewErrorHandler(logger),
		timeout: DefaultTimeout,
	}
}

// WithTimeout sets the per-request deadline; zero or less keeps the current one.
func (s *Server) WithTimeout(d time.Duration) *Server {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLogger)
	r.Use(s.errors.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(middleware.Heartbeat("/health"))
	r.Use(CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Post("/simulate/{game}", s.handleSimulate)
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_write_failed error=%q", err)
	}
}
