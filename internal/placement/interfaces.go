package placement

import (
	"context"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// TestStore persists placement tests.
type TestStore interface {
	// GetTest returns a test by id, or domain.ErrTestNotFound.
	GetTest(ctx context.Context, testID string) (*domain.PlacementTest, error)

	// FindActiveTest returns the in-progress test for a user and subject,
	// or domain.ErrTestNotFound when there is none.
	FindActiveTest(ctx context.Context, userID, subjectID string) (*domain.PlacementTest, error)

	// ListUserTests returns all of a user's tests, newest first.
	ListUserTests(ctx context.Context, userID string) ([]*domain.PlacementTest, error)

	// CreateTest inserts a new test.
	CreateTest(ctx context.Context, t *domain.PlacementTest) error

	// UpdateTest writes the test back, guarded by its Version column. A
	// concurrent writer having won the race surfaces as
	// domain.ErrVersionConflict.
	UpdateTest(ctx context.Context, t *domain.PlacementTest) error
}

// ContentGateway is the slice of the content hierarchy the orchestrator
// depends on.
type ContentGateway interface {
	GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error)
	ListDomains(ctx context.Context, subjectID string) ([]domain.ContentDomain, error)
	GetDomain(ctx context.Context, domainID string) (*domain.ContentDomain, error)
	GetNode(ctx context.Context, nodeID string) (*domain.Node, error)
	TestableNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error)
	ResolveNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error)
}

// QuestionSource supplies questions for a node and difficulty.
type QuestionSource interface {
	Next(ctx context.Context, node domain.Node, difficulty domain.Difficulty, excludeTexts map[string]struct{}) (*domain.Question, error)
}

// ProfileRecorder records the placement outcome on the user's profile.
// Called fire-and-forget on completion; failures are logged, never rolled
// back into the completed test.
type ProfileRecorder interface {
	RecordPlacement(ctx context.Context, userID, subjectID string, score int, level domain.Difficulty) error
}

// Notifier publishes completion events for out-of-band consumers such as
// the personalization planner. Fire-and-forget, same policy as the profile.
type Notifier interface {
	PlacementCompleted(ctx context.Context, t *domain.PlacementTest) error
}
