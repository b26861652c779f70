package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// Queue names
const (
	PlacementQueueName = "caliper.placements"
	PlanQueueName      = "caliper.plans"
)

// PlacementEvent announces a finished placement test to out-of-band
// consumers.
type PlacementEvent struct {
	TestID      string            `json:"test_id"`
	UserID      string            `json:"user_id"`
	SubjectID   string            `json:"subject_id"`
	Score       int               `json:"score"`
	Level       domain.Difficulty `json:"level"`
	CompletedAt time.Time         `json:"completed_at"`
}

// PlanRequest asks the personalization worker to build a study plan from a
// completed test.
type PlanRequest struct {
	TestID      string    `json:"test_id"`
	UserID      string    `json:"user_id"`
	SubjectID   string    `json:"subject_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Connection manages the RabbitMQ connection with automatic reconnection.
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
}

// NewConnection dials RabbitMQ and declares the caliper queues.
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.conn, err = amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.declareQueues(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	go c.handleReconnect()

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

func (c *Connection) declareQueues() error {
	for _, name := range []string{PlacementQueueName, PlanQueueName} {
		_, err := c.channel.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return nil
}

// handleReconnect listens for connection close and reconnects with backoff.
func (c *Connection) handleReconnect() {
	notifyClose := c.conn.NotifyClose(make(chan *amqp.Error, 1))

	err := <-notifyClose
	if err == nil {
		return // normal close
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	slog.Warn("RabbitMQ connection lost, reconnecting",
		"error", err,
		"reconnects", c.reconnects,
	)

	for attempt := 0; attempt < 10; attempt++ {
		c.reconnects++
		backoff := time.Duration(1<<attempt) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		time.Sleep(backoff)

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", attempt+1)
			continue
		}

		slog.Info("reconnected to RabbitMQ", "attempts", attempt+1)
		return
	}

	slog.Error("giving up on RabbitMQ reconnection after 10 attempts")
}

// Channel returns the current channel (thread-safe).
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports whether the connection is active.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes a persistent JSON message to a queue.
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// sanitizeURL truncates long URLs so credentials never reach the logs.
func sanitizeURL(url string) string {
	if len(url) > 20 {
		return url[:20] + "..."
	}
	return url
}
