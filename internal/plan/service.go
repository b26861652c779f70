package plan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/queue"
)

// Lessons allocated per assigned topic level. Weak topics get the most
// material.
const (
	lessonsBeginner     = 5
	lessonsIntermediate = 3
	lessonsAdvanced     = 1
)

// Service builds personalized study plans from completed placement tests.
// It runs out-of-band, fed by plan requests from the queue.
type Service struct {
	tests  TestSource
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new plan service.
func NewService(tests TestSource, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tests:  tests,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// HandleRequest builds and persists the plan for a queued request. It is
// wired as the queue.PlanHandler of the worker.
func (s *Service) HandleRequest(ctx context.Context, req *queue.PlanRequest) error {
	plan, err := s.BuildPlan(ctx, req.TestID)
	if err != nil {
		return err
	}

	s.logger.Info("study plan saved",
		"plan_id", plan.ID,
		"test_id", req.TestID,
		"user_id", plan.UserID,
		"items", len(plan.Items),
	)
	return nil
}

// BuildPlan derives a study plan from a completed test and persists it.
// Topics are ordered weakest first so the user starts where the assessment
// found the largest gaps.
func (s *Service) BuildPlan(ctx context.Context, testID string) (*domain.StudyPlan, error) {
	t, err := s.tests.GetTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	if t.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: test %s has status %s", domain.ErrTestNotActive, testID, t.Status)
	}

	plan := &domain.StudyPlan{
		ID:        uuid.NewString(),
		UserID:    t.UserID,
		SubjectID: t.SubjectID,
		TestID:    t.ID,
		Items:     buildItems(t.TopicAssessments),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// PlanForTest returns the existing plan for a test, if one was built.
func (s *Service) PlanForTest(ctx context.Context, testID string) (*domain.StudyPlan, error) {
	return s.store.FindPlanForTest(ctx, testID)
}

// buildItems turns the per-topic assessments into ordered plan items.
// Ordering is by score ascending; ties keep the assessment order, which
// follows the curriculum.
func buildItems(assessments []domain.TopicAssessment) []domain.PlanItem {
	items := make([]domain.PlanItem, 0, len(assessments))
	for _, a := range assessments {
		items = append(items, domain.PlanItem{
			TopicID:   a.TopicID,
			TopicName: a.TopicName,
			Level:     a.Level,
			Lessons:   lessonsForLevel(a.Level),
		})
	}

	scores := make(map[string]int, len(assessments))
	for _, a := range assessments {
		scores[a.TopicID] = a.Score
	}
	sort.SliceStable(items, func(i, j int) bool {
		return scores[items[i].TopicID] < scores[items[j].TopicID]
	})
	return items
}

func lessonsForLevel(level domain.Difficulty) int {
	switch level {
	case domain.DifficultyAdvanced:
		return lessonsAdvanced
	case domain.DifficultyIntermediate:
		return lessonsIntermediate
	default:
		return lessonsBeginner
	}
}
