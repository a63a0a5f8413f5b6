// Package activity tracks platform-wide posting activity and derives the
// activity level used to size cache lifetimes.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"socialfeed/models"
	"socialfeed/utils"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// decayHours is the time constant of the exponential decay applied to PostCount.
	decayHours   = 12.0
	recentWindow = time.Hour
	// activeRetention bounds the recently-active actors set.
	activeRetention = 7 * 24 * time.Hour
	// minWindowHours keeps the rate finite right after a window reset.
	minWindowHours = 0.1
	// maxTxRetries bounds optimistic retries of the metrics update under contention.
	maxTxRetries = 100
)

// MetricsCache holds the metrics record. *redis.Client satisfies it.
type MetricsCache interface {
	redis.Cmdable
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// ActorSet is the time-ranked set of recently active actors.
type ActorSet interface {
	TrackMember(ctx context.Context, key, member string, score, pruneBefore float64, ttl time.Duration) (int64, error)
	ZRangeByScore(ctx context.Context, key string, lo, hi float64) ([]string, error)
}

// Tracker maintains UserActivityMetrics in the cache.
type Tracker struct {
	cache  MetricsCache
	actors ActorSet
	clock  clock.Clock
	cfg    Config
	logger *zap.Logger
}

// NewTracker validates cfg and returns a Tracker. A nil clk uses the wall clock.
func NewTracker(cache MetricsCache, actors ActorSet, cfg Config, clk clock.Clock, logger *zap.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{cache: cache, actors: actors, clock: clk, cfg: cfg, logger: logger}, nil
}

// TrackPostCreated records one new post by actorID. It never fails: cache
// errors are logged and dropped.
func (t *Tracker) TrackPostCreated(ctx context.Context, actorID string) {
	now := t.clock.Now()

	uniquePosters := -1
	card, err := t.actors.TrackMember(ctx, utils.ActivityActiveUsersKey, actorID,
		float64(now.Unix()), float64(now.Add(-activeRetention).Unix()), activeRetention)
	if err != nil {
		t.logFailure("track active actor", err)
	} else {
		uniquePosters = int(card)
	}

	if err := t.updateMetrics(ctx, now, uniquePosters); err != nil {
		t.logFailure("update activity metrics", err)
	}
}

// updateMetrics folds one post into the stored record under WATCH, so
// concurrent writers retry instead of overwriting each other. A negative
// uniquePosters leaves the stored count alone.
func (t *Tracker) updateMetrics(ctx context.Context, now time.Time, uniquePosters int) error {
	txf := func(tx *redis.Tx) error {
		metrics, err := decodeMetrics(tx.Get(ctx, utils.ActivityMetricsKey))
		if err != nil {
			return err
		}
		metrics = applyPost(metrics, now)
		if uniquePosters >= 0 {
			metrics.UniquePosters = uniquePosters
		}
		raw, err := json.Marshal(metrics)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, utils.ActivityMetricsKey, raw, t.cfg.MetricsTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := t.cache.Watch(ctx, txf, utils.ActivityMetricsKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return utils.NewDatabaseError("activity.updateMetrics", redis.TxFailedErr)
}

// applyPost folds one post at now into m. A nil m starts a fresh record.
func applyPost(m *models.UserActivityMetrics, now time.Time) *models.UserActivityMetrics {
	if m == nil {
		return &models.UserActivityMetrics{
			PostCount:         1,
			LastUpdated:       now,
			RecentPostCount:   1,
			RecentWindowStart: now,
		}
	}

	elapsed := now.Sub(m.LastUpdated).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	m.PostCount = m.PostCount*math.Exp(-elapsed/decayHours) + 1

	if now.Sub(m.RecentWindowStart) > recentWindow {
		m.RecentPostCount = 1
		m.RecentWindowStart = now
	} else {
		m.RecentPostCount++
	}
	m.LastUpdated = now
	return m
}

// GetPlatformActivityLevel classifies current activity. Missing metrics, or
// metrics that cannot be read, count as dormant.
func (t *Tracker) GetPlatformActivityLevel(ctx context.Context) models.PlatformActivityLevel {
	metrics, err := t.loadMetrics(ctx)
	if err != nil {
		t.logger.Warn("activity metrics unavailable, assuming dormant", zap.Error(err))
		return models.ActivityDormant
	}
	return Classify(metrics, t.clock.Now(), t.cfg)
}

// CalculateDynamicTTL returns the cache lifetime for the current activity level.
func (t *Tracker) CalculateDynamicTTL(ctx context.Context) time.Duration {
	return t.cfg.TTLFor(t.GetPlatformActivityLevel(ctx))
}

// Snapshot returns the level, its TTL and the raw metrics.
func (t *Tracker) Snapshot(ctx context.Context) models.ActivitySnapshot {
	metrics, err := t.loadMetrics(ctx)
	if err != nil {
		t.logger.Warn("activity metrics unavailable", zap.Error(err))
		metrics = nil
	}
	level := Classify(metrics, t.clock.Now(), t.cfg)
	return models.ActivitySnapshot{
		Level:      level,
		TTLSeconds: int(t.cfg.TTLFor(level).Seconds()),
		Metrics:    metrics,
	}
}

// RecentlyActive returns actors that posted within the last `within`.
func (t *Tracker) RecentlyActive(ctx context.Context, within time.Duration) ([]string, error) {
	now := t.clock.Now()
	return t.actors.ZRangeByScore(ctx, utils.ActivityActiveUsersKey,
		float64(now.Add(-within).Unix()), float64(now.Unix()))
}

// Classify derives the activity level from metrics at now.
func Classify(m *models.UserActivityMetrics, now time.Time, cfg Config) models.PlatformActivityLevel {
	if m == nil {
		return models.ActivityDormant
	}
	if now.Sub(m.LastUpdated) > cfg.DormantAfter {
		return models.ActivityDormant
	}

	windowHours := math.Max(minWindowHours, now.Sub(m.RecentWindowStart).Hours())
	postsPerHour := float64(m.RecentPostCount) / windowHours
	return LevelForRate(postsPerHour, cfg)
}

// LevelForRate compares a posting rate against the descending thresholds.
func LevelForRate(postsPerHour float64, cfg Config) models.PlatformActivityLevel {
	switch {
	case postsPerHour >= cfg.HighPostsPerHour:
		return models.ActivityHigh
	case postsPerHour >= cfg.MediumPostsPerHour:
		return models.ActivityMedium
	case postsPerHour >= cfg.LowPostsPerHour:
		return models.ActivityLow
	default:
		return models.ActivityDormant
	}
}

func (t *Tracker) loadMetrics(ctx context.Context) (*models.UserActivityMetrics, error) {
	return decodeMetrics(t.cache.Get(ctx, utils.ActivityMetricsKey))
}

// decodeMetrics reads a GET reply. A missing key yields nil metrics.
func decodeMetrics(cmd *redis.StringCmd) (*models.UserActivityMetrics, error) {
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewDatabaseError("activity.loadMetrics", err)
	}
	var m models.UserActivityMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, utils.NewDatabaseError("activity.loadMetrics", err)
	}
	return &m, nil
}

func (t *Tracker) logFailure(what string, err error) {
	utils.ActivityTrackFailures.Inc()
	t.logger.Warn("activity tracking failed", zap.String("step", what), zap.Error(err))
}
