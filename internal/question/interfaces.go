package question

import (
	"context"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// BankStore reads pre-authored questions from the content store and takes
// generated ones back in.
type BankStore interface {
	// ListBankQuestions returns the authored questions for a node at a
	// difficulty, in stored order.
	ListBankQuestions(ctx context.Context, nodeID string, difficulty domain.Difficulty) ([]domain.Question, error)

	// SaveBankQuestion persists a question at the given bank position.
	SaveBankQuestion(ctx context.Context, q *domain.Question, position int) error
}

// Source defines the interface for fetching questions used by the
// placement orchestrator.
type Source interface {
	// Next returns a question for the node at the given difficulty whose
	// text is not in excludeTexts.
	Next(ctx context.Context, node domain.Node, difficulty domain.Difficulty, excludeTexts map[string]struct{}) (*domain.Question, error)
}

// Ensure Service implements Source
var _ Source = (*Service)(nil)
