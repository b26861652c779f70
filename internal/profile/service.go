package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

// Service maintains placement profiles. A profile is the durable record of
// where a user last placed within a subject; retakes overwrite it.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

var _ placement.ProfileRecorder = (*Service)(nil)

// NewService creates a new profile service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RecordPlacement writes the placement outcome onto the user's profile.
func (s *Service) RecordPlacement(ctx context.Context, userID, subjectID string, score int, level domain.Difficulty) error {
	p := &domain.PlacementProfile{
		UserID:    userID,
		SubjectID: subjectID,
		Score:     score,
		Level:     level,
		PlacedAt:  s.now().UTC(),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("record placement: %w", err)
	}

	s.logger.Info("placement recorded",
		"user_id", userID,
		"subject_id", subjectID,
		"score", score,
		"level", level,
	)
	return nil
}

// GetProfile returns the placement profile for a user and subject.
func (s *Service) GetProfile(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error) {
	return s.store.GetProfile(ctx, userID, subjectID)
}

// ListPlacements returns all of a user's placements.
func (s *Service) ListPlacements(ctx context.Context, userID string) ([]domain.PlacementProfile, error) {
	return s.store.ListUserProfiles(ctx, userID)
}
