package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

// TestStore persists placement tests in PostgreSQL. String id lists map to
// text arrays, the answer and assessment history to JSONB.
type TestStore struct {
	db *DB
}

var _ placement.TestStore = (*TestStore)(nil)

// NewTestStore creates a new PostgreSQL-backed test store.
func NewTestStore(db *DB) *TestStore {
	return &TestStore{db: db}
}

const testColumns = `id, user_id, subject_id, status,
	current_domain_id, current_topic_id, current_node_id, current_difficulty,
	domains_to_test, topics_to_test, nodes_to_test,
	tested_domains, tested_topics, tested_nodes,
	responses, topic_assessments, adaptive_state,
	estimated_questions, score, overall_level,
	strong_areas, weak_areas, recommended_path,
	started_at, completed_at, version`

// CreateTest inserts a new test.
func (s *TestStore) CreateTest(ctx context.Context, t *domain.PlacementTest) error {
	responses, assessments, adaptive, err := marshalHistory(t)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO placement_tests (`+testColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		t.ID, t.UserID, t.SubjectID, string(t.Status),
		t.CurrentDomainID, t.CurrentTopicID, t.CurrentNodeID, string(t.CurrentDifficulty),
		pq.Array(t.DomainsToTest), pq.Array(t.TopicsToTest), pq.Array(t.NodesToTest),
		pq.Array(t.TestedDomains), pq.Array(t.TestedTopics), pq.Array(t.TestedNodes),
		responses, assessments, adaptive,
		t.EstimatedQuestions, t.Score, string(t.OverallLevel),
		pq.Array(t.StrongAreas), pq.Array(t.WeakAreas), pq.Array(t.RecommendedPath),
		t.StartedAt, nullTime(t.CompletedAt), t.Version,
	)
	if err != nil {
		return fmt.Errorf("insert placement test: %w", err)
	}
	return nil
}

// UpdateTest writes the test back, guarded by its version.
func (s *TestStore) UpdateTest(ctx context.Context, t *domain.PlacementTest) error {
	responses, assessments, adaptive, err := marshalHistory(t)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE placement_tests SET
			status = $1,
			current_domain_id = $2, current_topic_id = $3, current_node_id = $4, current_difficulty = $5,
			domains_to_test = $6, topics_to_test = $7, nodes_to_test = $8,
			tested_domains = $9, tested_topics = $10, tested_nodes = $11,
			responses = $12, topic_assessments = $13, adaptive_state = $14,
			estimated_questions = $15, score = $16, overall_level = $17,
			strong_areas = $18, weak_areas = $19, recommended_path = $20,
			completed_at = $21, version = version + 1
		WHERE id = $22 AND version = $23`,
		string(t.Status),
		t.CurrentDomainID, t.CurrentTopicID, t.CurrentNodeID, string(t.CurrentDifficulty),
		pq.Array(t.DomainsToTest), pq.Array(t.TopicsToTest), pq.Array(t.NodesToTest),
		pq.Array(t.TestedDomains), pq.Array(t.TestedTopics), pq.Array(t.TestedNodes),
		responses, assessments, adaptive,
		t.EstimatedQuestions, t.Score, string(t.OverallLevel),
		pq.Array(t.StrongAreas), pq.Array(t.WeakAreas), pq.Array(t.RecommendedPath),
		nullTime(t.CompletedAt),
		t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("update placement test: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM placement_tests WHERE id = $1", t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check placement test: %w", err)
		}
		if exists == 0 {
			return domain.ErrTestNotFound
		}
		return domain.ErrVersionConflict
	}

	t.Version++
	return nil
}

// GetTest retrieves a test by id.
func (s *TestStore) GetTest(ctx context.Context, testID string) (*domain.PlacementTest, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+testColumns+" FROM placement_tests WHERE id = $1", testID)
	return scanTest(row)
}

// FindActiveTest returns the in-progress test for a user and subject.
func (s *TestStore) FindActiveTest(ctx context.Context, userID, subjectID string) (*domain.PlacementTest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+testColumns+` FROM placement_tests
		WHERE user_id = $1 AND subject_id = $2 AND status = $3
		ORDER BY started_at DESC LIMIT 1`,
		userID, subjectID, string(domain.StatusInProgress))
	return scanTest(row)
}

// ListUserTests returns all of a user's tests, newest first.
func (s *TestStore) ListUserTests(ctx context.Context, userID string) ([]*domain.PlacementTest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+testColumns+" FROM placement_tests WHERE user_id = $1 ORDER BY started_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var tests []*domain.PlacementTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// marshalHistory encodes the nested history slices for the JSONB columns.
// Assessments stay NULL until the first topic closes.
func marshalHistory(t *domain.PlacementTest) ([]byte, pqtype.NullRawMessage, []byte, error) {
	responses, err := json.Marshal(t.Responses)
	if err != nil {
		return nil, pqtype.NullRawMessage{}, nil, fmt.Errorf("marshal responses: %w", err)
	}

	var assessments pqtype.NullRawMessage
	if len(t.TopicAssessments) > 0 {
		data, err := json.Marshal(t.TopicAssessments)
		if err != nil {
			return nil, pqtype.NullRawMessage{}, nil, fmt.Errorf("marshal assessments: %w", err)
		}
		assessments = pqtype.NullRawMessage{RawMessage: data, Valid: true}
	}

	adaptive, err := json.Marshal(t.Adaptive)
	if err != nil {
		return nil, pqtype.NullRawMessage{}, nil, fmt.Errorf("marshal adaptive state: %w", err)
	}
	return responses, assessments, adaptive, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*domain.PlacementTest, error) {
	var (
		t           domain.PlacementTest
		status      string
		difficulty  string
		level       string
		responses   []byte
		assessments pqtype.NullRawMessage
		adaptive    []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.SubjectID, &status,
		&t.CurrentDomainID, &t.CurrentTopicID, &t.CurrentNodeID, &difficulty,
		pq.Array(&t.DomainsToTest), pq.Array(&t.TopicsToTest), pq.Array(&t.NodesToTest),
		pq.Array(&t.TestedDomains), pq.Array(&t.TestedTopics), pq.Array(&t.TestedNodes),
		&responses, &assessments, &adaptive,
		&t.EstimatedQuestions, &t.Score, &level,
		pq.Array(&t.StrongAreas), pq.Array(&t.WeakAreas), pq.Array(&t.RecommendedPath),
		&t.StartedAt, &completedAt, &t.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan placement test: %w", err)
	}

	t.Status = domain.TestStatus(status)
	t.CurrentDifficulty = domain.Difficulty(difficulty)
	t.OverallLevel = domain.Difficulty(level)
	if completedAt.Valid {
		at := completedAt.Time
		t.CompletedAt = &at
	}

	if err := json.Unmarshal(responses, &t.Responses); err != nil {
		return nil, fmt.Errorf("unmarshal responses: %w", err)
	}
	if assessments.Valid {
		if err := json.Unmarshal(assessments.RawMessage, &t.TopicAssessments); err != nil {
			return nil, fmt.Errorf("unmarshal assessments: %w", err)
		}
	}
	if err := json.Unmarshal(adaptive, &t.Adaptive); err != nil {
		return nil, fmt.Errorf("unmarshal adaptive state: %w", err)
	}

	return &t, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
