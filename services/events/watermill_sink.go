package events

import (
	"context"
	"time"

	"socialfeed/models"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// WatermillSink publishes events on a watermill topic named after the event type.
type WatermillSink struct {
	publisher message.Publisher
}

func NewWatermillSink(publisher message.Publisher) *WatermillSink {
	return &WatermillSink{publisher: publisher}
}

func (s *WatermillSink) Deliver(ctx context.Context, evt models.Event) error {
	msg := message.NewMessage(evt.ID, evt.Payload)
	msg.Metadata.Set("type", evt.Type)
	msg.Metadata.Set("occurredAt", evt.OccurredAt.Format(time.RFC3339Nano))
	msg.SetContext(ctx)
	return s.publisher.Publish(evt.Type, msg)
}

// HandlerFunc processes one event payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Consume subscribes to topic and runs handler for every message until ctx
// is done. Failed messages are logged and acked so one bad payload cannot
// loop forever on redelivery.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, handler HandlerFunc, logger *zap.Logger) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			if err := handler(msg.Context(), msg.Payload); err != nil {
				logger.Warn("event handler failed",
					zap.String("topic", topic), zap.String("eventId", msg.UUID), zap.Error(err))
			}
			msg.Ack()
		}
	}()
	return nil
}
