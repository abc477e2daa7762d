// Package api implements the HTTP registration surface and periodic
// trigger described in SPEC_FULL.md §6 (External Interfaces), grounded on
// original_source/maellin/app/main.py's FastAPI app (root message,
// POST /register, and a BackgroundScheduler-driven directory scan),
// reimplemented with gorilla/mux (borrowed into this module from the
// clintjedwards-gofer pack repo) and a time.Ticker in place of
// APScheduler.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/dagflow/dagflow/internal/persist"
	"github.com/dagflow/dagflow/internal/ports"
	dagflowerrors "github.com/dagflow/dagflow/pkg/errors"
)

// RegistrationRequest is the body of POST /register, matching
// original_source/maellin/app/models/jobs.py's Job pydantic model field by
// field: a scheduling hint (Trigger/Minutes/MaxInstances/Executor/Jobstore/
// ReplaceExisting, carried through for parity with the source but not acted
// on by the trigger sweep — see SPEC_FULL.md §1 Non-goals, "retry/timeout
// enforcement... reserved but not acted upon") plus the gob-encoded DAG
// snapshot payload itself.
type RegistrationRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Trigger         string `json:"trigger" validate:"required"`
	Minutes         int    `json:"minutes" validate:"required,min=1"`
	MaxInstances    int    `json:"max_instances" validate:"required,min=1"`
	Executor        string `json:"executor" validate:"required"`
	Jobstore        string `json:"jobstore" validate:"required"`
	ReplaceExisting bool   `json:"replace_existing"`
	DAG             []byte `json:"dag" validate:"required"`
}

var (
	registrationValidatorOnce sync.Once
	registrationValidator     *validator.Validate
)

func validateRegistration(req *RegistrationRequest) error {
	registrationValidatorOnce.Do(func() {
		registrationValidator = validator.New()
	})
	if err := registrationValidator.Struct(req); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			fe := ves[0]
			return dagflowerrors.NewValidationError(fe.Field(), fmt.Sprintf("%s failed validation for tag '%s'", fe.Field(), fe.Tag()), err)
		}
		return dagflowerrors.NewValidationError("registration", err.Error(), err)
	}
	return nil
}

// Server wires the registration endpoints onto a gorilla/mux router.
type Server struct {
	Router  *mux.Router
	DagsDir string
	Logger  ports.Logger
}

// NewServer builds a Server and registers its routes.
func NewServer(dagsDir string, logger ports.Logger) *Server {
	s := &Server{Router: mux.NewRouter(), DagsDir: dagsDir, Logger: logger}
	s.Router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.Router.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	return s
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "dagflow is running"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := validateRegistration(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// The DAG payload is the same gob-encoded persist.Snapshot the trigger
	// sweep reads back with persist.Decode; validate it parses before
	// persisting it, matching original_source/maellin's register_dag
	// (Pipeline.loads(job.dag)) failing fast on a malformed payload.
	if _, err := persist.Decode(req.DAG); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dag payload: " + err.Error()})
		return
	}

	if err := os.MkdirAll(s.DagsDir, 0o755); err != nil {
		s.fail(w, dagflowerrors.NewIOError(s.DagsDir, err))
		return
	}

	path := filepath.Join(s.DagsDir, req.Name)
	if err := os.WriteFile(path, req.DAG, 0o644); err != nil {
		s.fail(w, dagflowerrors.NewIOError(path, err))
		return
	}

	s.Logger.Info(r.Context(), "dag registered", "name", req.Name, "trigger", req.Trigger, "path", path)
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered", "path": path})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.Router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	}
}
