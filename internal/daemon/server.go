package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

// PlacementAPI is the slice of the placement service the HTTP surface uses.
type PlacementAPI interface {
	Start(ctx context.Context, userID, subjectID string) (*placement.StartResult, error)
	Submit(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error)
	Result(ctx context.Context, testID, userID string) (*domain.PlacementTest, error)
	ListTests(ctx context.Context, userID string) ([]placement.TestSummary, error)
}

// ProfileAPI reads placement profiles.
type ProfileAPI interface {
	GetProfile(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error)
	ListPlacements(ctx context.Context, userID string) ([]domain.PlacementProfile, error)
}

// PlanAPI reads study plans.
type PlanAPI interface {
	PlanForTest(ctx context.Context, testID string) (*domain.StudyPlan, error)
}

// Server is the caliper daemon HTTP server.
type Server struct {
	server *http.Server
	router *http.ServeMux

	placements PlacementAPI
	profiles   ProfileAPI
	plans      PlanAPI
	logger     *slog.Logger
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Addr       string
	Placements PlacementAPI
	Profiles   ProfileAPI
	Plans      PlanAPI // optional; plan endpoint 404s when nil
	Logger     *slog.Logger
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:     http.NewServeMux(),
		placements: cfg.Placements,
		profiles:   cfg.Profiles,
		plans:      cfg.Plans,
		logger:     logger,
	}

	s.setupRoutes()

	handler := recoveryMiddleware(loggingMiddleware(correlationIDMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)

	// Placement tests
	s.router.HandleFunc("POST /v1/tests", s.handleStartTest)
	s.router.HandleFunc("POST /v1/tests/{id}/answers", s.handleSubmitAnswer)
	s.router.HandleFunc("GET /v1/tests/{id}", s.handleGetResult)
	s.router.HandleFunc("GET /v1/tests/{id}/plan", s.handleGetPlan)

	// Profiles
	s.router.HandleFunc("GET /v1/users/{id}/tests", s.handleListTests)
	s.router.HandleFunc("GET /v1/users/{id}/placements", s.handleListPlacements)
	s.router.HandleFunc("GET /v1/users/{id}/placements/{subject}", s.handleGetPlacement)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting caliper daemon", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStartTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		SubjectID string `json:"subject_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.placements.Start(r.Context(), req.UserID, req.SubjectID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, result)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	testID := r.PathValue("id")

	var req struct {
		UserID string `json:"user_id"`
		Answer *int   `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Answer == nil {
		s.jsonError(w, http.StatusBadRequest, "answer is required", nil)
		return
	}

	result, err := s.placements.Submit(r.Context(), testID, req.UserID, *req.Answer)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	testID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")

	test, err := s.placements.Result(r.Context(), testID, userID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, test)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if s.plans == nil {
		s.jsonError(w, http.StatusNotFound, "plans not enabled", nil)
		return
	}

	testID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")

	plan, err := s.plans.PlanForTest(r.Context(), testID)
	if err != nil {
		s.domainError(w, err)
		return
	}
	if plan.UserID != userID {
		s.jsonError(w, http.StatusNotFound, "not found", nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, plan)
}

func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	tests, err := s.placements.ListTests(r.Context(), userID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"tests":   tests,
	})
}

func (s *Server) handleListPlacements(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	placements, err := s.profiles.ListPlacements(r.Context(), userID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"placements": placements,
	})
}

func (s *Server) handleGetPlacement(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	subjectID := r.PathValue("subject")

	profile, err := s.profiles.GetProfile(r.Context(), userID, subjectID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// domainError maps domain errors onto HTTP status codes.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, domain.ErrTestNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrDomainNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, domain.ErrTestNotActive),
		errors.Is(err, domain.ErrNoPendingQuestion),
		errors.Is(err, domain.ErrVersionConflict):
		s.jsonError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, domain.ErrNoDomains):
		s.jsonError(w, http.StatusUnprocessableEntity, "subject has no testable content", err)
	case errors.Is(err, domain.ErrContentUnavailable),
		errors.Is(err, domain.ErrQuestionGeneration):
		s.jsonError(w, http.StatusServiceUnavailable, "content generation unavailable", err)
	default:
		s.jsonError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
