package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

func samplePlan(id, testID string, created time.Time) *domain.StudyPlan {
	return &domain.StudyPlan{
		ID:        id,
		UserID:    "user-1",
		SubjectID: "math",
		TestID:    testID,
		Items: []domain.PlanItem{
			{TopicID: "n1", TopicName: "Counting", Level: domain.DifficultyBeginner, Lessons: 5},
			{TopicID: "n2", TopicName: "Addition", Level: domain.DifficultyAdvanced, Lessons: 2},
		},
		CreatedAt: created,
	}
}

func TestPlanStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewPlanStore(db)
	ctx := context.Background()

	created := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	if err := store.SavePlan(ctx, samplePlan("plan-1", "test-1", created)); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	got, err := store.GetPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if got.TestID != "test-1" || len(got.Items) != 2 {
		t.Errorf("plan = %+v", got)
	}
	if got.Items[0].TopicName != "Counting" || got.Items[0].Lessons != 5 {
		t.Errorf("items[0] = %+v", got.Items[0])
	}

	_, err = store.GetPlan(ctx, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPlan() error = %v, want ErrNotFound", err)
	}
}

func TestPlanStoreFindForTest(t *testing.T) {
	db := openTestDB(t)
	store := NewPlanStore(db)
	ctx := context.Background()

	created := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	if err := store.SavePlan(ctx, samplePlan("plan-1", "test-1", created)); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}
	if err := store.SavePlan(ctx, samplePlan("plan-2", "test-1", created.Add(time.Hour))); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	got, err := store.FindPlanForTest(ctx, "test-1")
	if err != nil {
		t.Fatalf("FindPlanForTest() error = %v", err)
	}
	if got.ID != "plan-2" {
		t.Errorf("FindPlanForTest() ID = %s, want plan-2 (newest)", got.ID)
	}

	plans, err := store.ListUserPlans(ctx, "user-1", "math")
	if err != nil {
		t.Fatalf("ListUserPlans() error = %v", err)
	}
	if len(plans) != 2 || plans[0].ID != "plan-2" {
		t.Errorf("plans = %v", plans)
	}
}
