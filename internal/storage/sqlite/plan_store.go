package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// PlanStore persists generated study plans.
type PlanStore struct {
	db *DB
}

// NewPlanStore creates a new SQLite-backed plan store.
func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// SavePlan inserts or replaces a study plan.
func (s *PlanStore) SavePlan(ctx context.Context, p *domain.StudyPlan) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("marshal plan items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO study_plans (id, user_id, subject_id, test_id, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.SubjectID, p.TestID, string(items), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save study plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a study plan by id.
func (s *PlanStore) GetPlan(ctx context.Context, planID string) (*domain.StudyPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, subject_id, test_id, items, created_at
		FROM study_plans WHERE id = ?`, planID)
	return scanPlan(row)
}

// FindPlanForTest returns the plan generated for a test, if any.
func (s *PlanStore) FindPlanForTest(ctx context.Context, testID string) (*domain.StudyPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, subject_id, test_id, items, created_at
		FROM study_plans WHERE test_id = ?
		ORDER BY created_at DESC LIMIT 1`, testID)
	return scanPlan(row)
}

// ListUserPlans returns a user's study plans for a subject, newest first.
func (s *PlanStore) ListUserPlans(ctx context.Context, userID, subjectID string) ([]*domain.StudyPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, subject_id, test_id, items, created_at
		FROM study_plans WHERE user_id = ? AND subject_id = ?
		ORDER BY created_at DESC`, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.StudyPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (*domain.StudyPlan, error) {
	var (
		p     domain.StudyPlan
		items string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.SubjectID, &p.TestID, &items, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan study plan: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
		return nil, fmt.Errorf("unmarshal plan items: %w", err)
	}
	return &p, nil
}
