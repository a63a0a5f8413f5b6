package feed

import (
	"context"
	"time"

	"socialfeed/models"

	"go.uber.org/zap"
)

const trendingSize = 500

// TrendingSource lists the posts with the highest trend score since a point in time.
type TrendingSource interface {
	FetchTrendingPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error)
}

// TTLFunc picks the lifetime of a rebuilt feed.
type TTLFunc func(ctx context.Context) time.Duration

// TrendingAggregator rebuilds the global trending sorted set from the post store.
type TrendingAggregator struct {
	source TrendingSource
	store  *Store
	ttl    TTLFunc
	window time.Duration
	logger *zap.Logger
}

// NewTrendingAggregator considers posts created within window.
func NewTrendingAggregator(source TrendingSource, store *Store, ttl TTLFunc, window time.Duration, logger *zap.Logger) *TrendingAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendingAggregator{source: source, store: store, ttl: ttl, window: window, logger: logger}
}

// RunTrendingAggregation replaces the trending feed in one transaction and
// returns the number of entries written.
func (a *TrendingAggregator) RunTrendingAggregation(ctx context.Context) (int, error) {
	posts, err := a.source.FetchTrendingPosts(ctx, time.Now().Add(-a.window), trendingSize)
	if err != nil {
		return 0, err
	}

	entries := make([]models.FeedEntry, 0, len(posts))
	for _, p := range posts {
		if p.Deleted || p.PublicID == "" {
			continue
		}
		entries = append(entries, models.FeedEntry{Score: p.TrendScore, PostID: p.PublicID})
	}

	ttl := a.ttl(ctx)
	if err := a.store.ReplaceFeed(ctx, models.GlobalSubject, models.FeedTrending, entries, ttl); err != nil {
		return 0, err
	}
	a.logger.Info("trending feed rebuilt", zap.Int("entries", len(entries)), zap.Duration("ttl", ttl))
	return len(entries), nil
}
