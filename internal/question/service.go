package question

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/llm"
)

// Service serves placement questions: pre-authored bank questions first,
// on-demand generation as the fallback.
type Service struct {
	bank     BankStore
	registry *llm.Registry
	prompter *Prompter
	logger   *slog.Logger
}

// NewService creates a new question service
func NewService(bank BankStore, registry *llm.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		bank:     bank,
		registry: registry,
		prompter: NewPrompter(),
		logger:   logger,
	}
}

// Next returns a question for the node at the given difficulty. The bank is
// consulted first, filtered by excludeTexts; when no unused bank question
// remains the question is generated. Both failing yields
// domain.ErrQuestionGeneration.
func (s *Service) Next(ctx context.Context, node domain.Node, difficulty domain.Difficulty, excludeTexts map[string]struct{}) (*domain.Question, error) {
	if q, err := s.fromBank(ctx, node.ID, difficulty, excludeTexts); err == nil {
		return q, nil
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	} else {
		s.logger.Debug("question bank miss, generating",
			"node_id", node.ID,
			"difficulty", difficulty,
			"reason", err)
	}

	q, err := s.generate(ctx, node, difficulty, excludeTexts)
	if err != nil {
		return nil, fmt.Errorf("%w: node %s at %s: %v", domain.ErrQuestionGeneration, node.ID, difficulty, err)
	}

	// Generated questions feed the bank so later tests on the same node
	// hit the bank path instead of the LLM. A failed write-back only
	// costs a future regeneration.
	if s.bank != nil {
		if err := s.bank.SaveBankQuestion(ctx, q, 0); err != nil {
			s.logger.Warn("failed to save generated question to bank",
				"node_id", node.ID,
				"difficulty", difficulty,
				"error", err)
		}
	}
	return q, nil
}

// fromBank returns the first authored question for the node whose text has
// not been used yet in this test.
func (s *Service) fromBank(ctx context.Context, nodeID string, difficulty domain.Difficulty, excludeTexts map[string]struct{}) (*domain.Question, error) {
	if s.bank == nil {
		return nil, domain.ErrNotFound
	}

	questions, err := s.bank.ListBankQuestions(ctx, nodeID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("list bank questions: %w", err)
	}
	for i := range questions {
		if _, used := excludeTexts[questions[i].Text]; used {
			continue
		}
		q := questions[i]
		q.Difficulty = difficulty
		return &q, nil
	}
	return nil, fmt.Errorf("%w: no unused bank question", domain.ErrNotFound)
}

func (s *Service) generate(ctx context.Context, node domain.Node, difficulty domain.Difficulty, excludeTexts map[string]struct{}) (*domain.Question, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("no question generator configured")
	}
	provider, err := s.registry.Default()
	if err != nil {
		return nil, fmt.Errorf("get LLM provider: %w", err)
	}

	prompt := s.prompter.BuildQuestionPrompt(node, difficulty, excludeTexts)
	resp, err := provider.Generate(ctx, &llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		System:      s.prompter.SystemPrompt(),
		MaxTokens:   1024,
		Temperature: 0.7,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	q, err := s.prompter.ParseQuestion(resp.Content, node, difficulty)
	if err != nil {
		return nil, err
	}
	if _, used := excludeTexts[q.Text]; used {
		return nil, fmt.Errorf("generated question repeats an already asked one")
	}
	return q, nil
}
