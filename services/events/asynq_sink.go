package events

import (
	"context"

	"socialfeed/models"

	"github.com/hibiken/asynq"
)

// AsynqSink enqueues events as asynq tasks named after the event type.
type AsynqSink struct {
	client   *asynq.Client
	maxRetry int
}

func NewAsynqSink(client *asynq.Client) *AsynqSink {
	return &AsynqSink{client: client, maxRetry: 3}
}

func (s *AsynqSink) Deliver(ctx context.Context, evt models.Event) error {
	task := asynq.NewTask(evt.Type, evt.Payload)
	_, err := s.client.EnqueueContext(ctx, task, asynq.TaskID(evt.ID), asynq.MaxRetry(s.maxRetry))
	return err
}
