package profile

import (
	"context"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// Store persists placement profiles.
type Store interface {
	// SaveProfile inserts or overwrites the profile for a user and subject.
	SaveProfile(ctx context.Context, p *domain.PlacementProfile) error

	// GetProfile returns the profile for a user and subject, or
	// domain.ErrProfileNotFound.
	GetProfile(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error)

	// ListUserProfiles returns all of a user's placements.
	ListUserProfiles(ctx context.Context, userID string) ([]domain.PlacementProfile, error)
}
