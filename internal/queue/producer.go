package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/placement"
)

// Producer publishes placement completion events and plan requests.
type Producer struct {
	conn *Connection
}

var _ placement.Notifier = (*Producer)(nil)

// NewProducer creates a new queue producer.
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PlacementCompleted publishes the completion event and enqueues a study
// plan request for the worker.
func (p *Producer) PlacementCompleted(ctx context.Context, t *domain.PlacementTest) error {
	completedAt := time.Now()
	if t.CompletedAt != nil {
		completedAt = *t.CompletedAt
	}

	event := PlacementEvent{
		TestID:      t.ID,
		UserID:      t.UserID,
		SubjectID:   t.SubjectID,
		Score:       t.Score,
		Level:       t.OverallLevel,
		CompletedAt: completedAt,
	}
	if err := p.conn.PublishJSON(ctx, PlacementQueueName, event); err != nil {
		return fmt.Errorf("publish placement event: %w", err)
	}

	slog.Info("published placement event",
		"test_id", t.ID,
		"user_id", t.UserID,
		"subject_id", t.SubjectID,
		"score", t.Score,
	)

	return p.RequestPlan(ctx, &PlanRequest{
		TestID:      t.ID,
		UserID:      t.UserID,
		SubjectID:   t.SubjectID,
		RequestedAt: time.Now(),
	})
}

// RequestPlan enqueues a study plan request.
func (p *Producer) RequestPlan(ctx context.Context, req *PlanRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, PlanQueueName, req); err != nil {
		return fmt.Errorf("publish plan request: %w", err)
	}

	slog.Info("published plan request",
		"test_id", req.TestID,
		"user_id", req.UserID,
	)
	return nil
}
