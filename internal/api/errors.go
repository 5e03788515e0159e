package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorHandler writes EngineError responses and logs them.
type ErrorHandler struct {
	logger *log.Logger
}

// NewErrorHandler creates an error handler logging to logger.
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes err with status. Context entries are echoed in the body.
func (eh *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, status int, errType string, err error, context map[string]any) {
	engineErr := newEngineError(errType, err.Error(), middleware.GetReqID(r.Context()), context)
	eh.logger.Printf(
		"error_occurred type=%s status=%d request_id=%s method=%s path=%s message=%q",
		engineErr.Type, status, engineErr.RequestID, r.Method, r.URL.Path, engineErr.Message,
	)
	eh.write(w, status, engineErr)
}

// HandleValidation writes a 400 naming the invalid field.
func (eh *ErrorHandler) HandleValidation(w http.ResponseWriter, r *http.Request, field string, err error) {
	eh.Handle(w, r, http.StatusBadRequest, ErrTypeValidation,
		fmt.Errorf("validation failed: %w", err), map[string]any{"field": field})
}

func (eh *ErrorHandler) write(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Printf("error_write_failed request_id=%s error=%q", engineErr.RequestID, err)
	}
}

// Recoverer turns a panic into a 500 EngineError.
func (eh *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			requestID := middleware.GetReqID(r.Context())
			eh.logger.Printf("panic_recovered request_id=%s method=%s path=%s panic=%v",
				requestID, r.Method, r.URL.Path, rvr)
			eh.write(w, http.StatusInternalServerError,
				newEngineError(ErrTypeInternal, "internal server error", requestID, nil))
		}()
		next.ServeHTTP(w, r)
	})
}
