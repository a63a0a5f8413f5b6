package handlers

import (
	"context"

	"socialfeed/models"
)

// FeedService serves the feed reads and the post fan-out triggers.
type FeedService interface {
	GeneratePersonalizedCoreFeed(ctx context.Context, viewerID string, limit int, cursor string) (*models.FeedResponse, error)
	GetCachedFeed(ctx context.Context, viewerID string, limit int, cursor string) (*models.FeedResponse, error)
	GetTrendingFeed(ctx context.Context, limit int, cursor string) (*models.FeedResponse, error)
	PublishPost(ctx context.Context, postID, authorID string, score float64) (int, error)
	RetractPost(ctx context.Context, postID, authorID string) error
}

// SeenTracker remembers which posts a viewer has already been shown.
type SeenTracker interface {
	MarkSeen(ctx context.Context, viewerID string, postIDs []string) error
	HasSeen(ctx context.Context, viewerID, postID string) (bool, error)
	FilterUnseen(ctx context.Context, viewerID string, postIDs []string) ([]string, error)
}

// ActivityReporter exposes the platform activity snapshot.
type ActivityReporter interface {
	Snapshot(ctx context.Context) models.ActivitySnapshot
}

// HandlerBundle holds the services behind every HTTP endpoint.
type HandlerBundle struct {
	Feeds    FeedService
	Seen     SeenTracker
	Activity ActivityReporter
}
