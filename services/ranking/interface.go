package ranking

import (
	"context"
	"time"

	"socialfeed/models"
	"socialfeed/services/bloom"
)

// UserFinder resolves viewers. A missing user is (nil, nil).
type UserFinder interface {
	FindByPublicID(ctx context.Context, publicID string) (*models.User, error)
}

// TagSource returns a user's highest-weighted interest tags.
type TagSource interface {
	GetTopUserTags(ctx context.Context, userID string, limit int) ([]models.UserTag, error)
}

// FollowGraph answers both directions of the follow relation.
type FollowGraph interface {
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// RankedFeedQuery is the ranked-query backend. Both calls honour the same
// opaque cursor contract as the sorted-set store.
type RankedFeedQuery interface {
	GetRankedFeedWithCursor(ctx context.Context, tags []string, limit int, cursor string) (*models.CursorPage, error)
	GetFeedForUserCoreWithCursor(ctx context.Context, followeeIDs, tags []string, limit int, cursor string) (*models.CursorPage, error)
}

// FeedStore is the subset of the sorted-set store the ranking layer uses.
type FeedStore interface {
	GetFeedWithCursor(ctx context.Context, subjectID string, limit int, cursor string, feedType models.FeedType) (*models.CursorPage, error)
	GetTrendingFeedWithCursor(ctx context.Context, limit int, cursor string) (*models.CursorPage, error)
	AddToFeedsBatch(ctx context.Context, subjectIDs []string, postID string, score float64, feedType models.FeedType) error
	RemoveFromFeedsBatch(ctx context.Context, subjectIDs []string, postID string, feedType models.FeedType) error
	RemoveFromFeed(ctx context.Context, subjectID, postID string, feedType models.FeedType) error
}

// Publisher sends events without waiting for consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// ActivityTracker records posts and sizes cache lifetimes.
type ActivityTracker interface {
	TrackPostCreated(ctx context.Context, actorID string)
	CalculateDynamicTTL(ctx context.Context) time.Duration
}

// MembershipFilter is a probabilistic set keyed by string.
type MembershipFilter interface {
	MightContain(ctx context.Context, key, item string, opts bloom.Options) (bool, error)
	AddWithTTL(ctx context.Context, key, item string, opts bloom.Options, ttl time.Duration) error
}
