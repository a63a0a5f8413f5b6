package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialfeed/config"
	"socialfeed/models"
	"socialfeed/services/events"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt points asynq at the queue database.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewEventMux routes each event type to its handler.
func NewEventMux(handlers map[string]events.HandlerFunc, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for eventType, fn := range handlers {
		mux.HandleFunc(eventType, taskHandler(eventType, fn, logger))
	}
	return mux
}

// InitEventWorker runs the event worker in background and returns the server
// so the caller can shut it down.
func InitEventWorker(ctx context.Context, handlers map[string]events.HandlerFunc, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := NewEventMux(handlers, logger)

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("starting event worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("event worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("event worker retries exhausted")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func taskHandler(eventType string, fn events.HandlerFunc, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		if err := fn(ctx, task.Payload()); err != nil {
			logger.Warn("event handler failed", zap.String("type", eventType), zap.Error(err))
			return err
		}
		logger.Debug("event handled", zap.String("type", eventType))
		return nil
	}
}

// LogPostPublished records fan-out results for observability.
func LogPostPublished(logger *zap.Logger) events.HandlerFunc {
	return func(_ context.Context, payload []byte) error {
		var p models.PostPublishedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode post published payload: %w", err)
		}
		logger.Info("post published",
			zap.String("postId", p.PostID), zap.String("authorId", p.AuthorID),
			zap.Float64("score", p.Score), zap.Int("followers", p.Followers))
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	opt := QueueRedisOpt()
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("queue redis connection lost", zap.Error(err))
			}
		}
	}
}
