package placement

import (
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// QuestionPayload is the caller-facing view of the pending question. The
// correct index and explanation are withheld until the test is read back
// in full via Result.
type QuestionPayload struct {
	ID         string            `json:"id"`
	Question   string            `json:"question"`
	Options    []string          `json:"options"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// Progress reports answered questions against the estimated target.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// StartResult is the response to starting a test.
type StartResult struct {
	TestID             string            `json:"test_id"`
	SubjectName        string            `json:"subject_name"`
	CurrentDomain      string            `json:"current_domain"`
	CurrentTopic       string            `json:"current_topic"`
	CurrentQuestion    *QuestionPayload  `json:"current_question"`
	CurrentDifficulty  domain.Difficulty `json:"current_difficulty"`
	Progress           Progress          `json:"progress"`
	EstimatedQuestions int               `json:"estimated_questions"`
}

// ResultSummary carries the final fields of a completed test.
type ResultSummary struct {
	Score           int               `json:"score"`
	Level           domain.Difficulty `json:"level"`
	StrongAreas     []string          `json:"strong_areas"`
	WeakAreas       []string          `json:"weak_areas"`
	RecommendedPath []string          `json:"recommended_path"`
}

// SubmitResult is the response to submitting an answer. The graded outcome
// is always present; NextQuestion is nil when the test completed or when
// question generation failed (QuestionPending).
type SubmitResult struct {
	TestID    string `json:"test_id"`
	IsCorrect bool   `json:"is_correct"`
	IsSkipped bool   `json:"is_skipped"`
	Completed bool   `json:"completed"`

	NextQuestion    *QuestionPayload `json:"next_question,omitempty"`
	QuestionPending bool             `json:"question_pending,omitempty"`

	CurrentDomain     string            `json:"current_domain,omitempty"`
	CurrentTopic      string            `json:"current_topic,omitempty"`
	CurrentDifficulty domain.Difficulty `json:"current_difficulty,omitempty"`
	Progress          Progress          `json:"progress"`

	Result *ResultSummary `json:"result,omitempty"`
}

func questionPayload(r *domain.QuestionResponse) *QuestionPayload {
	if r == nil {
		return nil
	}
	return &QuestionPayload{
		ID:         r.QuestionID,
		Question:   r.Question,
		Options:    r.Options,
		Difficulty: r.Difficulty,
	}
}

// TestSummary is one row of a user's test history. Final fields are only
// set on completed tests.
type TestSummary struct {
	TestID      string            `json:"test_id"`
	SubjectID   string            `json:"subject_id"`
	Status      domain.TestStatus `json:"status"`
	Answered    int               `json:"answered"`
	Score       int               `json:"score,omitempty"`
	Level       domain.Difficulty `json:"level,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}
