package cron

import (
	"context"
	"errors"
	"testing"

	"socialfeed/models"
	"socialfeed/services/events"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTaskHandlerPassesPayload(t *testing.T) {
	var got []byte
	h := taskHandler(models.EventColdStartFeedGenerated, func(_ context.Context, payload []byte) error {
		got = payload
		return nil
	}, zap.NewNop())

	require.NoError(t, h(context.Background(), asynq.NewTask(models.EventColdStartFeedGenerated, []byte(`{"userId":"u1"}`))))
	assert.JSONEq(t, `{"userId":"u1"}`, string(got))
}

func TestTaskHandlerReturnsErrorForRetry(t *testing.T) {
	boom := errors.New("boom")
	h := taskHandler("x", func(context.Context, []byte) error { return boom }, zap.NewNop())
	assert.ErrorIs(t, h(context.Background(), asynq.NewTask("x", nil)), boom)
}

func TestNewEventMuxRoutesByType(t *testing.T) {
	called := map[string]int{}
	handlers := map[string]events.HandlerFunc{
		models.EventColdStartFeedGenerated: func(context.Context, []byte) error {
			called[models.EventColdStartFeedGenerated]++
			return nil
		},
		models.EventPostPublished: func(context.Context, []byte) error {
			called[models.EventPostPublished]++
			return nil
		},
	}
	mux := NewEventMux(handlers, zap.NewNop())

	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(models.EventPostPublished, nil)))
	assert.Equal(t, map[string]int{models.EventPostPublished: 1}, called)
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}

func TestLogPostPublished(t *testing.T) {
	h := LogPostPublished(zap.NewNop())
	assert.NoError(t, h(context.Background(), []byte(`{"postId":"p1","authorId":"a1","score":3,"followers":2}`)))
	assert.Error(t, h(context.Background(), []byte(`nope`)))
}
