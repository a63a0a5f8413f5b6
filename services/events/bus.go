// Package events publishes domain events without blocking the caller.
// Publish enqueues onto a bounded channel; a single goroutine drains it
// into a Sink (asynq or watermill).
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialfeed/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBusFull   = errors.New("event bus is full")
	ErrBusClosed = errors.New("event bus is closed")
)

const deliverTimeout = 5 * time.Second

// Sink delivers one event to the transport.
type Sink interface {
	Deliver(ctx context.Context, evt models.Event) error
}

// Bus is a non-blocking publisher in front of a Sink.
type Bus struct {
	sink   Sink
	queue  chan models.Event
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewBus returns a Bus buffering up to buffer events.
func NewBus(sink Sink, buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{sink: sink, queue: make(chan models.Event, buffer), logger: logger}
}

// Start launches the delivery goroutine.
func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for evt := range b.queue {
			ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
			if err := b.sink.Deliver(ctx, evt); err != nil {
				b.logger.Warn("event delivery failed",
					zap.String("eventId", evt.ID), zap.String("type", evt.Type), zap.Error(err))
			}
			cancel()
		}
	}()
}

// Publish encodes payload and enqueues it. It never waits for delivery.
func (b *Bus) Publish(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	evt := models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBusFull
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()
	b.wg.Wait()
}
