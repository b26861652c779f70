package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

// PlacementAPI is the slice of the placement service exposed over MCP.
type PlacementAPI interface {
	Start(ctx context.Context, userID, subjectID string) (*placement.StartResult, error)
	Submit(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error)
	Result(ctx context.Context, testID, userID string) (*domain.PlacementTest, error)
}

// ProfileAPI reads stored placement profiles.
type ProfileAPI interface {
	ListPlacements(ctx context.Context, userID string) ([]domain.PlacementProfile, error)
}

// Server wraps the MCP server with Caliper functionality
type Server struct {
	mcpServer  *server.Server
	placements PlacementAPI
	profiles   ProfileAPI
}

// Config contains configuration for the MCP server
type Config struct {
	Placements PlacementAPI
	Profiles   ProfileAPI
}

// NewServer creates a new MCP server for Caliper
func NewServer(cfg Config) *Server {
	s := &Server{
		placements: cfg.Placements,
		profiles:   cfg.Profiles,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "caliper",
		Version: "0.1.0",
	}, server.WithInstructions(`
Caliper runs adaptive placement tests that locate a learner's level in a
subject with as few questions as possible.

Available tools:
- caliper_start: Start a placement test for a user and subject
- caliper_answer: Submit an answer (or skip) for the pending question
- caliper_result: Read the result of a completed test
- caliper_placements: List a user's stored placement profiles

Answers are zero-based option indexes. Submit skip=true to skip a
question; a skip is graded as incorrect but recorded separately.
`))

	s.registerTools()

	return s
}

// registerTools registers all Caliper MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("caliper_start").
		Description("Start an adaptive placement test. Returns the first question.").
		Handler(s.handleStart)

	s.mcpServer.Tool("caliper_answer").
		Description("Submit an answer for the pending question. Returns the grade and the next question, or the final result when the test completes.").
		Handler(s.handleAnswer)

	s.mcpServer.Tool("caliper_result").
		Description("Read the full result of a completed placement test.").
		Handler(s.handleResult)

	s.mcpServer.Tool("caliper_placements").
		Description("List a user's stored placement profiles across subjects.").
		Handler(s.handlePlacements)
}

// Input/Output types for tools

type StartInput struct {
	UserID    string `json:"user_id" jsonschema:"description=User identifier"`
	SubjectID string `json:"subject_id" jsonschema:"description=Subject to place the user in"`
}

type AnswerInput struct {
	TestID string `json:"test_id" jsonschema:"description=Test ID from caliper_start"`
	UserID string `json:"user_id" jsonschema:"description=User identifier"`
	Answer *int   `json:"answer,omitempty" jsonschema:"description=Zero-based index of the chosen option"`
	Skip   bool   `json:"skip,omitempty" jsonschema:"description=Skip the question instead of answering"`
}

type ResultInput struct {
	TestID string `json:"test_id" jsonschema:"description=Test ID from caliper_start"`
	UserID string `json:"user_id" jsonschema:"description=User identifier"`
}

type ResultOutput struct {
	TestID          string            `json:"test_id"`
	Status          string            `json:"status"`
	Score           int               `json:"score"`
	Level           domain.Difficulty `json:"level"`
	QuestionsAsked  int               `json:"questions_asked"`
	StrongAreas     []string          `json:"strong_areas"`
	WeakAreas       []string          `json:"weak_areas"`
	RecommendedPath []string          `json:"recommended_path"`
}

type PlacementsInput struct {
	UserID string `json:"user_id" jsonschema:"description=User identifier"`
}

type PlacementEntry struct {
	SubjectID string            `json:"subject_id"`
	Score     int               `json:"score"`
	Level     domain.Difficulty `json:"level"`
	PlacedAt  string            `json:"placed_at"`
}

type PlacementsOutput struct {
	Placements []PlacementEntry `json:"placements"`
}

// Tool handlers

func (s *Server) handleStart(ctx context.Context, input StartInput) (placement.StartResult, error) {
	res, err := s.placements.Start(ctx, input.UserID, input.SubjectID)
	if err != nil {
		return placement.StartResult{}, fmt.Errorf("failed to start test: %w", err)
	}
	return *res, nil
}

func (s *Server) handleAnswer(ctx context.Context, input AnswerInput) (placement.SubmitResult, error) {
	answer := domain.SkipAnswer
	if !input.Skip {
		if input.Answer == nil {
			return placement.SubmitResult{}, fmt.Errorf("%w: answer is required unless skip is set", domain.ErrInvalidInput)
		}
		answer = *input.Answer
	}

	res, err := s.placements.Submit(ctx, input.TestID, input.UserID, answer)
	if err != nil {
		return placement.SubmitResult{}, fmt.Errorf("failed to submit answer: %w", err)
	}
	return *res, nil
}

func (s *Server) handleResult(ctx context.Context, input ResultInput) (ResultOutput, error) {
	t, err := s.placements.Result(ctx, input.TestID, input.UserID)
	if err != nil {
		return ResultOutput{}, fmt.Errorf("failed to read result: %w", err)
	}

	return ResultOutput{
		TestID:          t.ID,
		Status:          string(t.Status),
		Score:           t.Score,
		Level:           t.OverallLevel,
		QuestionsAsked:  t.AnsweredCount(),
		StrongAreas:     t.StrongAreas,
		WeakAreas:       t.WeakAreas,
		RecommendedPath: t.RecommendedPath,
	}, nil
}

func (s *Server) handlePlacements(ctx context.Context, input PlacementsInput) (PlacementsOutput, error) {
	profiles, err := s.profiles.ListPlacements(ctx, input.UserID)
	if err != nil {
		return PlacementsOutput{}, fmt.Errorf("failed to list placements: %w", err)
	}

	out := PlacementsOutput{Placements: make([]PlacementEntry, 0, len(profiles))}
	for _, p := range profiles {
		out.Placements = append(out.Placements, PlacementEntry{
			SubjectID: p.SubjectID,
			Score:     p.Score,
			Level:     p.Level,
			PlacedAt:  p.PlacedAt.Format("2006-01-02"),
		})
	}
	return out, nil
}

// ServeStdio starts the MCP server on stdio (for editor integration)
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
