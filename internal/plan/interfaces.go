package plan

import (
	"context"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// TestSource reads completed placement tests.
type TestSource interface {
	GetTest(ctx context.Context, testID string) (*domain.PlacementTest, error)
}

// Store persists study plans.
type Store interface {
	SavePlan(ctx context.Context, p *domain.StudyPlan) error
	GetPlan(ctx context.Context, planID string) (*domain.StudyPlan, error)
	FindPlanForTest(ctx context.Context, testID string) (*domain.StudyPlan, error)
}
