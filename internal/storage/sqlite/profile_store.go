package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// ProfileStore persists placement profiles, one row per user and subject.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new SQLite-backed profile store.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// SaveProfile inserts or overwrites the profile for a user and subject.
func (s *ProfileStore) SaveProfile(ctx context.Context, p *domain.PlacementProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO placement_profiles (user_id, subject_id, score, level, placed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, subject_id) DO UPDATE SET
			score = excluded.score,
			level = excluded.level,
			placed_at = excluded.placed_at`,
		p.UserID, p.SubjectID, p.Score, string(p.Level), p.PlacedAt)
	if err != nil {
		return fmt.Errorf("save placement profile: %w", err)
	}
	return nil
}

// GetProfile retrieves the profile for a user and subject.
func (s *ProfileStore) GetProfile(ctx context.Context, userID, subjectID string) (*domain.PlacementProfile, error) {
	var (
		p     domain.PlacementProfile
		level string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, subject_id, score, level, placed_at
		FROM placement_profiles WHERE user_id = ? AND subject_id = ?`,
		userID, subjectID).
		Scan(&p.UserID, &p.SubjectID, &p.Score, &level, &p.PlacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get placement profile: %w", err)
	}
	p.Level = domain.Difficulty(level)
	return &p, nil
}

// ListUserProfiles returns all of a user's placements.
func (s *ProfileStore) ListUserProfiles(ctx context.Context, userID string) ([]domain.PlacementProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, subject_id, score, level, placed_at
		FROM placement_profiles WHERE user_id = ? ORDER BY subject_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list placement profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.PlacementProfile
	for rows.Next() {
		var (
			p     domain.PlacementProfile
			level string
		)
		if err := rows.Scan(&p.UserID, &p.SubjectID, &p.Score, &level, &p.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan placement profile: %w", err)
		}
		p.Level = domain.Difficulty(level)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
