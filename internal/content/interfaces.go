package content

import (
	"context"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// Store reads and writes the content hierarchy.
type Store interface {
	// GetSubject returns a subject by id, or domain.ErrSubjectNotFound.
	GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error)

	// ListDomains returns the subject's domains in position order.
	ListDomains(ctx context.Context, subjectID string) ([]domain.ContentDomain, error)

	// GetDomain returns a domain by id, or domain.ErrDomainNotFound.
	GetDomain(ctx context.Context, domainID string) (*domain.ContentDomain, error)

	// ListDomainNodes returns a domain's nodes in position order.
	ListDomainNodes(ctx context.Context, domainID string) ([]domain.Node, error)

	// ListSubjectNodes returns every node of a subject in position order.
	ListSubjectNodes(ctx context.Context, subjectID string) ([]domain.Node, error)

	// GetNode returns a node by id, or domain.ErrNodeNotFound.
	GetNode(ctx context.Context, nodeID string) (*domain.Node, error)

	// SaveNodes persists generated nodes.
	SaveNodes(ctx context.Context, nodes []domain.Node) error
}

// Gateway defines the content hierarchy operations the placement
// orchestrator depends on.
type Gateway interface {
	GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error)
	ListDomains(ctx context.Context, subjectID string) ([]domain.ContentDomain, error)
	GetDomain(ctx context.Context, domainID string) (*domain.ContentDomain, error)
	GetNode(ctx context.Context, nodeID string) (*domain.Node, error)

	// TestableNodes returns the nodes to test for a domain, falling back to
	// the subject's untested nodes. May be empty.
	TestableNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error)

	// ResolveNodes is TestableNodes with on-demand generation as the last
	// resort; it never returns an empty list without an error.
	ResolveNodes(ctx context.Context, subjectID, domainID string, testedNodes []string) ([]domain.Node, error)

	// GenerateNodes creates count learning nodes for a subject with no
	// authored content. Slow; may fail with domain.ErrContentUnavailable.
	GenerateNodes(ctx context.Context, subjectID string, count int) ([]domain.Node, error)
}

// Ensure Service implements Gateway
var _ Gateway = (*Service)(nil)
