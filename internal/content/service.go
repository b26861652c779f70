package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/llm"
)

// Service is the content hierarchy gateway: store-backed lookups plus
// LLM-backed node generation for subjects with no authored content.
type Service struct {
	store    Store
	registry *llm.Registry
	prompter *Prompter
	logger   *slog.Logger
}

// NewService creates a new content service
func NewService(store Store, registry *llm.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		registry: registry,
		prompter: NewPrompter(),
		logger:   logger,
	}
}

// GetSubject returns a subject by id
func (s *Service) GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	return s.store.GetSubject(ctx, subjectID)
}

// ListDomains returns the subject's domains in position order
func (s *Service) ListDomains(ctx context.Context, subjectID string) ([]domain.ContentDomain, error) {
	return s.store.ListDomains(ctx, subjectID)
}

// GetDomain returns a domain by id
func (s *Service) GetDomain(ctx context.Context, domainID string) (*domain.ContentDomain, error) {
	return s.store.GetDomain(ctx, domainID)
}

// GetNode returns a node by id
func (s *Service) GetNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	return s.store.GetNode(ctx, nodeID)
}

// TestableNodes returns the nodes to test for a domain: the domain's own
// nodes, or the subject's not-yet-tested nodes when the domain has none.
// The result may be empty.
func (s *Service) TestableNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error) {
	if domainID != "" {
		nodes, err := s.store.ListDomainNodes(ctx, domainID)
		if err != nil {
			return nil, fmt.Errorf("list domain nodes: %w", err)
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
	}

	subjectNodes, err := s.store.ListSubjectNodes(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list subject nodes: %w", err)
	}
	return filterTested(subjectNodes, testedNodes), nil
}

// ResolveNodes is TestableNodes with on-demand generation as the last
// resort. An empty result after all three steps surfaces as
// domain.ErrContentUnavailable.
func (s *Service) ResolveNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error) {
	nodes, err := s.TestableNodes(ctx, subjectID, domainID, testedNodes)
	if err != nil {
		return nil, err
	}
	if len(nodes) > 0 {
		return nodes, nil
	}

	s.logger.Info("no authored nodes available, generating",
		"subject_id", subjectID,
		"domain_id", domainID)
	return s.GenerateNodes(ctx, subjectID, domain.GeneratedNodeCount)
}

// GenerateNodes asks the LLM for a topic breakdown of the subject and
// persists the result. Any failure surfaces as domain.ErrContentUnavailable.
func (s *Service) GenerateNodes(ctx context.Context, subjectID string, count int) ([]domain.Node, error) {
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.generate(ctx, *subject, count)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %s: %v", domain.ErrContentUnavailable, subjectID, err)
	}

	if err := s.store.SaveNodes(ctx, nodes); err != nil {
		// Generated nodes are still usable for this test even if the
		// write failed; the next empty subject just regenerates.
		s.logger.Warn("failed to persist generated nodes",
			"subject_id", subjectID,
			"error", err)
	}
	return nodes, nil
}

func (s *Service) generate(ctx context.Context, subject domain.Subject, count int) ([]domain.Node, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("no node generator configured")
	}
	provider, err := s.registry.Default()
	if err != nil {
		return nil, fmt.Errorf("get LLM provider: %w", err)
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: s.prompter.BuildNodesPrompt(subject, count)},
		},
		System:      s.prompter.SystemPrompt(),
		MaxTokens:   2048,
		Temperature: 0.7,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate nodes: %w", err)
	}

	nodes, err := s.prompter.ParseNodes(resp.Content, subject.ID)
	if err != nil {
		return nil, err
	}
	if len(nodes) > count {
		nodes = nodes[:count]
	}
	for i := range nodes {
		nodes[i].ID = uuid.New().String()
	}
	return nodes, nil
}

func filterTested(nodes []domain.Node, testedNodes []string) []domain.Node {
	tested := make(map[string]struct{}, len(testedNodes))
	for _, id := range testedNodes {
		tested[id] = struct{}{}
	}
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := tested[n.ID]; !ok {
			out = append(out, n)
		}
	}
	return out
}
