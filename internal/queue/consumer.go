package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PlanHandler builds a study plan for one request.
type PlanHandler func(ctx context.Context, req *PlanRequest) error

// PlanConsumer consumes plan requests from the queue and hands them to the
// personalization service.
type PlanConsumer struct {
	conn       *Connection
	handler    PlanHandler
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Workers  int           // number of concurrent workers
	Prefetch int           // prefetch count per worker
	Timeout  time.Duration // per-request deadline
}

// DefaultConsumerConfig returns sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // one request at a time per worker for fairness
		Timeout:  30 * time.Second,
	}
}

// NewPlanConsumer creates a new plan request consumer.
func NewPlanConsumer(conn *Connection, handler PlanHandler, cfg ConsumerConfig) *PlanConsumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PlanConsumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
}

// Start begins consuming plan requests.
func (c *PlanConsumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		PlanQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.Info("starting plan consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

func (c *PlanConsumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("plan worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("plan worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

func (c *PlanConsumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var req PlanRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		slog.Error("malformed plan request",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	slog.Info("building study plan",
		"worker_id", workerID,
		"test_id", req.TestID,
		"user_id", req.UserID,
	)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.handler(reqCtx, &req)
	duration := time.Since(start)

	if err != nil {
		slog.Error("plan building failed",
			"worker_id", workerID,
			"test_id", req.TestID,
			"error", err,
			"duration", duration,
		)
		// A redelivered message already failed once; drop it.
		_ = msg.Reject(!msg.Redelivered)
		return
	}

	slog.Info("study plan built",
		"worker_id", workerID,
		"test_id", req.TestID,
		"duration", duration,
	)

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack plan request",
			"worker_id", workerID,
			"test_id", req.TestID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer.
func (c *PlanConsumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("plan consumer stopped")
}
