package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// ContentStore reads and writes the subject catalog: subjects, domains,
// learning nodes and the curated question bank.
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new SQLite-backed content store.
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// GetSubject retrieves a subject by id.
func (s *ContentStore) GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	var sub domain.Subject
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM subjects WHERE id = ?", subjectID).
		Scan(&sub.ID, &sub.Name, &sub.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &sub, nil
}

// SaveSubject inserts or replaces a subject.
func (s *ContentStore) SaveSubject(ctx context.Context, sub *domain.Subject) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO subjects (id, name, description) VALUES (?, ?, ?)",
		sub.ID, sub.Name, sub.Description)
	if err != nil {
		return fmt.Errorf("save subject: %w", err)
	}
	return nil
}

// ListDomains returns a subject's domains in curriculum order.
func (s *ContentStore) ListDomains(ctx context.Context, subjectID string) ([]domain.ContentDomain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, name, position FROM content_domains
		WHERE subject_id = ? ORDER BY position, id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []domain.ContentDomain
	for rows.Next() {
		var d domain.ContentDomain
		if err := rows.Scan(&d.ID, &d.SubjectID, &d.Name, &d.Position); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// GetDomain retrieves a content domain by id.
func (s *ContentStore) GetDomain(ctx context.Context, domainID string) (*domain.ContentDomain, error) {
	var d domain.ContentDomain
	err := s.db.QueryRowContext(ctx,
		"SELECT id, subject_id, name, position FROM content_domains WHERE id = ?", domainID).
		Scan(&d.ID, &d.SubjectID, &d.Name, &d.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDomainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get domain: %w", err)
	}
	return &d, nil
}

// SaveDomain inserts or replaces a content domain.
func (s *ContentStore) SaveDomain(ctx context.Context, d *domain.ContentDomain) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO content_domains (id, subject_id, name, position) VALUES (?, ?, ?, ?)",
		d.ID, d.SubjectID, d.Name, d.Position)
	if err != nil {
		return fmt.Errorf("save domain: %w", err)
	}
	return nil
}

// ListDomainNodes returns the nodes attached to a domain in order.
func (s *ContentStore) ListDomainNodes(ctx context.Context, domainID string) ([]domain.Node, error) {
	return s.listNodes(ctx, `
		SELECT id, domain_id, subject_id, title, difficulty, position FROM nodes
		WHERE domain_id = ? ORDER BY position, id`, domainID)
}

// ListSubjectNodes returns every node of a subject in order.
func (s *ContentStore) ListSubjectNodes(ctx context.Context, subjectID string) ([]domain.Node, error) {
	return s.listNodes(ctx, `
		SELECT id, domain_id, subject_id, title, difficulty, position FROM nodes
		WHERE subject_id = ? ORDER BY position, id`, subjectID)
}

func (s *ContentStore) listNodes(ctx context.Context, query, arg string) ([]domain.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		var (
			n          domain.Node
			difficulty string
		)
		if err := rows.Scan(&n.ID, &n.DomainID, &n.SubjectID, &n.Title, &difficulty, &n.Position); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Difficulty = domain.Difficulty(difficulty)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// GetNode retrieves a node by id.
func (s *ContentStore) GetNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	var (
		n          domain.Node
		difficulty string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, domain_id, subject_id, title, difficulty, position FROM nodes WHERE id = ?", nodeID).
		Scan(&n.ID, &n.DomainID, &n.SubjectID, &n.Title, &difficulty, &n.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}
	n.Difficulty = domain.Difficulty(difficulty)
	return &n, nil
}

// SaveNodes persists a batch of nodes in one transaction.
func (s *ContentStore) SaveNodes(ctx context.Context, nodes []domain.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save nodes: %w", err)
	}
	defer tx.Rollback()

	for _, n := range nodes {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO nodes (id, domain_id, subject_id, title, difficulty, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, n.DomainID, n.SubjectID, n.Title, string(n.Difficulty), n.Position)
		if err != nil {
			return fmt.Errorf("save node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// ListBankQuestions returns the curated questions for a node at a difficulty.
func (s *ContentStore) ListBankQuestions(ctx context.Context, nodeID string, difficulty domain.Difficulty) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, node_id, text, options, correct_index, difficulty, explanation
		FROM bank_questions
		WHERE node_id = ? AND difficulty = ?
		ORDER BY position, id`, nodeID, string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("list bank questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			options string
			diff    string
		)
		if err := rows.Scan(&q.ID, &q.NodeID, &q.Text, &options, &q.CorrectIndex, &diff, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan bank question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		q.Difficulty = domain.Difficulty(diff)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveBankQuestion inserts or replaces a curated question.
func (s *ContentStore) SaveBankQuestion(ctx context.Context, q *domain.Question, position int) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO bank_questions (id, node_id, text, options, correct_index, difficulty, explanation, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.NodeID, q.Text, string(options), q.CorrectIndex, string(q.Difficulty), q.Explanation, position)
	if err != nil {
		return fmt.Errorf("save bank question: %w", err)
	}
	return nil
}
