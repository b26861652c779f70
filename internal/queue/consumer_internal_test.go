package queue

import (
	"testing"
	"time"
)

func TestNewPlanConsumer_DefaultsZeroConfig(t *testing.T) {
	c := NewPlanConsumer(nil, nil, ConsumerConfig{})

	if c.workers != 3 {
		t.Errorf("workers = %d; want 3", c.workers)
	}
	if c.prefetch != 1 {
		t.Errorf("prefetch = %d; want 1", c.prefetch)
	}
	if c.timeout != 30*time.Second {
		t.Errorf("timeout = %v; want 30s", c.timeout)
	}
}

func TestNewPlanConsumer_PreservesCustomConfig(t *testing.T) {
	c := NewPlanConsumer(nil, nil, ConsumerConfig{
		Workers:  10,
		Prefetch: 5,
		Timeout:  time.Minute,
	})

	if c.workers != 10 {
		t.Errorf("workers = %d; want 10", c.workers)
	}
	if c.prefetch != 5 {
		t.Errorf("prefetch = %d; want 5", c.prefetch)
	}
	if c.timeout != time.Minute {
		t.Errorf("timeout = %v; want 1m", c.timeout)
	}
}
