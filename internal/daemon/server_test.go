package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

type mockPlacements struct {
	startFn  func(ctx context.Context, userID, subjectID string) (*placement.StartResult, error)
	submitFn func(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error)
	resultFn func(ctx context.Context, testID, userID string) (*domain.PlacementTest, error)
	listFn   func(ctx context.Context, userID string) ([]placement.TestSummary, error)
}

func (m *mockPlacements) Start(ctx context.Context, userID, subjectID string) (*placement.StartResult, error) {
	return m.startFn(ctx, userID, subjectID)
}

func (m *mockPlacements) Submit(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error) {
	return m.submitFn(ctx, testID, userID, answer)
}

func (m *mockPlacements) Result(ctx context.Context, testID, userID string) (*domain.PlacementTest, error) {
	return m.resultFn(ctx, testID, userID)
}

func (m *mockPlacements) ListTests(ctx context.Context, userID string) ([]placement.TestSummary, error) {
	return m.listFn(ctx, userID)
}

type mockProfiles struct {
	getFn  func(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error)
	listFn func(ctx context.Context, userID string) ([]domain.PlacementProfile, error)
}

func (m *mockProfiles) GetProfile(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error) {
	return m.getFn(ctx, userID, subjectID)
}

func (m *mockProfiles) ListPlacements(ctx context.Context, userID string) ([]domain.PlacementProfile, error) {
	return m.listFn(ctx, userID)
}

type mockPlans struct {
	planFn func(ctx context.Context, testID string) (*domain.StudyPlan, error)
}

func (m *mockPlans) PlanForTest(ctx context.Context, testID string) (*domain.StudyPlan, error) {
	return m.planFn(ctx, testID)
}

func newTestServer(placements PlacementAPI, profiles ProfileAPI, plans PlanAPI) *Server {
	return NewServer(ServerConfig{
		Addr:       "127.0.0.1:0",
		Placements: placements,
		Profiles:   profiles,
		Plans:      plans,
	})
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&mockPlacements{}, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHandleStartTest(t *testing.T) {
	placements := &mockPlacements{
		startFn: func(ctx context.Context, userID, subjectID string) (*placement.StartResult, error) {
			if userID != "user-1" || subjectID != "math" {
				t.Errorf("Start(%s, %s)", userID, subjectID)
			}
			return &placement.StartResult{
				TestID:      "test-1",
				SubjectName: "Mathematics",
				CurrentQuestion: &placement.QuestionPayload{
					ID:       "q1",
					Question: "What is 2 + 2?",
					Options:  []string{"4", "5", "6", "7"},
				},
				CurrentDifficulty:  domain.DifficultyIntermediate,
				EstimatedQuestions: 15,
			}, nil
		},
	}
	s := newTestServer(placements, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/v1/tests",
		`{"user_id": "user-1", "subject_id": "math"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var result placement.StartResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.TestID != "test-1" || result.CurrentQuestion == nil {
		t.Errorf("result = %+v", result)
	}
}

func TestHandleStartTestInvalidBody(t *testing.T) {
	s := newTestServer(&mockPlacements{}, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/v1/tests", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStartTestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"unknown subject", domain.ErrSubjectNotFound, http.StatusNotFound},
		{"no domains", domain.ErrNoDomains, http.StatusUnprocessableEntity},
		{"generation down", domain.ErrQuestionGeneration, http.StatusServiceUnavailable},
		{"content unavailable", domain.ErrContentUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placements := &mockPlacements{
				startFn: func(ctx context.Context, userID, subjectID string) (*placement.StartResult, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(placements, &mockProfiles{}, nil)

			rec := doRequest(t, s, http.MethodPost, "/v1/tests",
				`{"user_id": "user-1", "subject_id": "math"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleSubmitAnswer(t *testing.T) {
	placements := &mockPlacements{
		submitFn: func(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error) {
			if testID != "test-1" || userID != "user-1" || answer != 2 {
				t.Errorf("Submit(%s, %s, %d)", testID, userID, answer)
			}
			return &placement.SubmitResult{
				TestID:    "test-1",
				IsCorrect: true,
				NextQuestion: &placement.QuestionPayload{
					ID: "q2", Question: "What is 3 + 3?", Options: []string{"6", "7", "8", "9"},
				},
				Progress: placement.Progress{Current: 1, Total: 15},
			}, nil
		},
	}
	s := newTestServer(placements, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/v1/tests/test-1/answers",
		`{"user_id": "user-1", "answer": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result placement.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !result.IsCorrect || result.NextQuestion == nil {
		t.Errorf("result = %+v", result)
	}
}

func TestHandleSubmitAnswerSkipSentinel(t *testing.T) {
	var gotAnswer int
	placements := &mockPlacements{
		submitFn: func(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error) {
			gotAnswer = answer
			return &placement.SubmitResult{TestID: testID, IsSkipped: true}, nil
		},
	}
	s := newTestServer(placements, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/v1/tests/test-1/answers",
		`{"user_id": "user-1", "answer": -1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotAnswer != domain.SkipAnswer {
		t.Errorf("answer = %d, want %d", gotAnswer, domain.SkipAnswer)
	}
}

func TestHandleSubmitAnswerMissingAnswer(t *testing.T) {
	s := newTestServer(&mockPlacements{}, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/v1/tests/test-1/answers",
		`{"user_id": "user-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSubmitAnswerConflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrTestNotFound, http.StatusNotFound},
		{"not active", domain.ErrTestNotActive, http.StatusConflict},
		{"no pending question", domain.ErrNoPendingQuestion, http.StatusConflict},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placements := &mockPlacements{
				submitFn: func(ctx context.Context, testID, userID string, answer int) (*placement.SubmitResult, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(placements, &mockProfiles{}, nil)

			rec := doRequest(t, s, http.MethodPost, "/v1/tests/test-1/answers",
				`{"user_id": "user-1", "answer": 0}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleGetResult(t *testing.T) {
	placements := &mockPlacements{
		resultFn: func(ctx context.Context, testID, userID string) (*domain.PlacementTest, error) {
			if testID != "test-1" || userID != "user-1" {
				t.Errorf("Result(%s, %s)", testID, userID)
			}
			return &domain.PlacementTest{
				ID:     "test-1",
				UserID: "user-1",
				Status: domain.StatusCompleted,
				Score:  80,
			}, nil
		},
	}
	s := newTestServer(placements, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/tests/test-1?user_id=user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var test domain.PlacementTest
	if err := json.Unmarshal(rec.Body.Bytes(), &test); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if test.Score != 80 {
		t.Errorf("Score = %d, want 80", test.Score)
	}
}

func TestHandleGetPlan(t *testing.T) {
	plans := &mockPlans{
		planFn: func(ctx context.Context, testID string) (*domain.StudyPlan, error) {
			return &domain.StudyPlan{ID: "plan-1", UserID: "user-1", TestID: testID}, nil
		},
	}
	s := newTestServer(&mockPlacements{}, &mockProfiles{}, plans)

	rec := doRequest(t, s, http.MethodGet, "/v1/tests/test-1/plan?user_id=user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// A foreign user must not see the plan.
	rec = doRequest(t, s, http.MethodGet, "/v1/tests/test-1/plan?user_id=intruder", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign user status = %d, want 404", rec.Code)
	}
}

func TestHandleGetPlanDisabled(t *testing.T) {
	s := newTestServer(&mockPlacements{}, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/tests/test-1/plan?user_id=user-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListTests(t *testing.T) {
	placements := &mockPlacements{
		listFn: func(ctx context.Context, userID string) ([]placement.TestSummary, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return []placement.TestSummary{
				{TestID: "t2", SubjectID: "math", Status: domain.StatusInProgress, Answered: 3},
				{TestID: "t1", SubjectID: "math", Status: domain.StatusCompleted, Answered: 15, Score: 60},
			}, nil
		},
	}
	s := newTestServer(placements, &mockProfiles{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/users/user-1/tests", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		UserID string                  `json:"user_id"`
		Tests  []placement.TestSummary `json:"tests"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Tests) != 2 {
		t.Fatalf("got %d tests, want 2", len(body.Tests))
	}
	if body.Tests[0].TestID != "t2" || body.Tests[1].Score != 60 {
		t.Errorf("unexpected listing: %+v", body.Tests)
	}
}

func TestHandleListPlacements(t *testing.T) {
	profiles := &mockProfiles{
		listFn: func(ctx context.Context, userID string) ([]domain.PlacementProfile, error) {
			return []domain.PlacementProfile{
				{UserID: userID, SubjectID: "math", Score: 80, Level: domain.DifficultyAdvanced},
			}, nil
		},
	}
	s := newTestServer(&mockPlacements{}, profiles, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/users/user-1/placements", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		UserID     string                    `json:"user_id"`
		Placements []domain.PlacementProfile `json:"placements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Placements) != 1 || body.Placements[0].SubjectID != "math" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandleGetPlacementNotFound(t *testing.T) {
	profiles := &mockProfiles{
		getFn: func(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error) {
			return nil, domain.ErrProfileNotFound
		},
	}
	s := newTestServer(&mockPlacements{}, profiles, nil)

	rec := doRequest(t, s, http.MethodGet, "/v1/users/user-1/placements/math", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
