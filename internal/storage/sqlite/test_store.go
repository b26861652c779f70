package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// TestStore persists placement tests in SQLite. The test's nested arrays
// are serialized as JSON columns; the aggregate is small and always read
// and written whole.
type TestStore struct {
	db *DB
}

// NewTestStore creates a new SQLite-backed test store.
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
	doc, err := marshalTest(t)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO placement_tests (`+testColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.SubjectID, string(t.Status),
		t.CurrentDomainID, t.CurrentTopicID, t.CurrentNodeID, string(t.CurrentDifficulty),
		doc.domainsToTest, doc.topicsToTest, doc.nodesToTest,
		doc.testedDomains, doc.testedTopics, doc.testedNodes,
		doc.responses, doc.assessments, doc.adaptive,
		t.EstimatedQuestions, t.Score, string(t.OverallLevel),
		doc.strongAreas, doc.weakAreas, doc.recommendedPath,
		t.StartedAt, nullTime(t.CompletedAt), t.Version,
	)
	if err != nil {
		return fmt.Errorf("insert placement test: %w", err)
	}
	return nil
}

// UpdateTest writes the test back, guarded by its version. A stale version
// surfaces as domain.ErrVersionConflict; on success the in-memory version
// is advanced to match the row.
func (s *TestStore) UpdateTest(ctx context.Context, t *domain.PlacementTest) error {
	doc, err := marshalTest(t)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE placement_tests SET
			status = ?,
			current_domain_id = ?, current_topic_id = ?, current_node_id = ?, current_difficulty = ?,
			domains_to_test = ?, topics_to_test = ?, nodes_to_test = ?,
			tested_domains = ?, tested_topics = ?, tested_nodes = ?,
			responses = ?, topic_assessments = ?, adaptive_state = ?,
			estimated_questions = ?, score = ?, overall_level = ?,
			strong_areas = ?, weak_areas = ?, recommended_path = ?,
			completed_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(t.Status),
		t.CurrentDomainID, t.CurrentTopicID, t.CurrentNodeID, string(t.CurrentDifficulty),
		doc.domainsToTest, doc.topicsToTest, doc.nodesToTest,
		doc.testedDomains, doc.testedTopics, doc.testedNodes,
		doc.responses, doc.assessments, doc.adaptive,
		t.EstimatedQuestions, t.Score, string(t.OverallLevel),
		doc.strongAreas, doc.weakAreas, doc.recommendedPath,
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
			"SELECT COUNT(1) FROM placement_tests WHERE id = ?", t.ID).Scan(&exists); err != nil {
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
		"SELECT "+testColumns+" FROM placement_tests WHERE id = ?", testID)
	return scanTest(row)
}

// FindActiveTest returns the in-progress test for a user and subject.
func (s *TestStore) FindActiveTest(ctx context.Context, userID, subjectID string) (*domain.PlacementTest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+testColumns+` FROM placement_tests
		WHERE user_id = ? AND subject_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`,
		userID, subjectID, string(domain.StatusInProgress))
	return scanTest(row)
}

// ListUserTests returns all of a user's tests, newest first.
func (s *TestStore) ListUserTests(ctx context.Context, userID string) ([]*domain.PlacementTest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+testColumns+" FROM placement_tests WHERE user_id = ? ORDER BY started_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list placement tests: %w", err)
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

// testDoc holds the JSON-encoded columns of one test row.
type testDoc struct {
	domainsToTest, topicsToTest, nodesToTest string
	testedDomains, testedTopics, testedNodes string
	responses, assessments, adaptive         string
	strongAreas, weakAreas, recommendedPath  string
}

func marshalTest(t *domain.PlacementTest) (*testDoc, error) {
	doc := &testDoc{}
	for _, col := range []struct {
		name string
		v    any
		out  *string
	}{
		{"domains_to_test", t.DomainsToTest, &doc.domainsToTest},
		{"topics_to_test", t.TopicsToTest, &doc.topicsToTest},
		{"nodes_to_test", t.NodesToTest, &doc.nodesToTest},
		{"tested_domains", t.TestedDomains, &doc.testedDomains},
		{"tested_topics", t.TestedTopics, &doc.testedTopics},
		{"tested_nodes", t.TestedNodes, &doc.testedNodes},
		{"responses", t.Responses, &doc.responses},
		{"topic_assessments", t.TopicAssessments, &doc.assessments},
		{"adaptive_state", t.Adaptive, &doc.adaptive},
		{"strong_areas", t.StrongAreas, &doc.strongAreas},
		{"weak_areas", t.WeakAreas, &doc.weakAreas},
		{"recommended_path", t.RecommendedPath, &doc.recommendedPath},
	} {
		data, err := json.Marshal(col.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", col.name, err)
		}
		*col.out = string(data)
	}
	return doc, nil
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
		doc         testDoc
		completedAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.SubjectID, &status,
		&t.CurrentDomainID, &t.CurrentTopicID, &t.CurrentNodeID, &difficulty,
		&doc.domainsToTest, &doc.topicsToTest, &doc.nodesToTest,
		&doc.testedDomains, &doc.testedTopics, &doc.testedNodes,
		&doc.responses, &doc.assessments, &doc.adaptive,
		&t.EstimatedQuestions, &t.Score, &level,
		&doc.strongAreas, &doc.weakAreas, &doc.recommendedPath,
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

	for _, col := range []struct {
		name string
		data string
		v    any
	}{
		{"domains_to_test", doc.domainsToTest, &t.DomainsToTest},
		{"topics_to_test", doc.topicsToTest, &t.TopicsToTest},
		{"nodes_to_test", doc.nodesToTest, &t.NodesToTest},
		{"tested_domains", doc.testedDomains, &t.TestedDomains},
		{"tested_topics", doc.testedTopics, &t.TestedTopics},
		{"tested_nodes", doc.testedNodes, &t.TestedNodes},
		{"responses", doc.responses, &t.Responses},
		{"topic_assessments", doc.assessments, &t.TopicAssessments},
		{"adaptive_state", doc.adaptive, &t.Adaptive},
		{"strong_areas", doc.strongAreas, &t.StrongAreas},
		{"weak_areas", doc.weakAreas, &t.WeakAreas},
		{"recommended_path", doc.recommendedPath, &t.RecommendedPath},
	} {
		if col.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.data), col.v); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", col.name, err)
		}
	}

	return &t, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
