// Package ranking builds viewer feeds. It picks between the personalized
// core feed, the global ranked feed for cold-start users, and the
// precomputed sorted-set feeds, degrading to empty pages when a backend
// read fails.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"socialfeed/models"
	"socialfeed/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Options tune the ranking service.
type Options struct {
	DefaultLimit      int
	MaxLimit          int
	TopTags           int
	FollowingCacheTTL time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		DefaultLimit:      20,
		MaxLimit:          100,
		TopTags:           10,
		FollowingCacheTTL: 60 * time.Second,
	}
}

// Deps are the collaborators of Service.
type Deps struct {
	Users     UserFinder
	Tags      TagSource
	Graph     FollowGraph
	Ranked    RankedFeedQuery
	Feeds     FeedStore
	Cache     redis.Cmdable
	Publisher Publisher
	Activity  ActivityTracker
}

// Service produces cursor-paginated feeds for viewers.
type Service struct {
	users     UserFinder
	tags      TagSource
	graph     FollowGraph
	ranked    RankedFeedQuery
	feeds     FeedStore
	cache     redis.Cmdable
	publisher Publisher
	activity  ActivityTracker
	opts      Options
	logger    *zap.Logger
}

// NewService wires a Service.
func NewService(deps Deps, opts Options, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.TopTags <= 0 {
		opts.TopTags = def.TopTags
	}
	if opts.FollowingCacheTTL <= 0 {
		opts.FollowingCacheTTL = def.FollowingCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     deps.Users,
		tags:      deps.Tags,
		graph:     deps.Graph,
		ranked:    deps.Ranked,
		feeds:     deps.Feeds,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		activity:  deps.Activity,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// GeneratePersonalizedCoreFeed returns one page of viewerID's feed. Viewers
// with neither follows nor tag preferences get the global ranked feed, and
// the first such page publishes a cold-start event.
func (s *Service) GeneratePersonalizedCoreFeed(ctx context.Context, viewerID string, limit int, cursor string) (*models.FeedResponse, error) {
	const op = "ranking.GeneratePersonalizedCoreFeed"
	limit = s.clampLimit(limit)

	user, err := s.users.FindByPublicID(ctx, viewerID)
	if err != nil {
		return nil, utils.NewDatabaseError(op, err)
	}
	if user == nil {
		return nil, utils.NewNotFoundError(op, "user "+viewerID+" not found")
	}

	// either lookup may fail without cancelling the other
	var (
		tags, followees   []string
		tagErr, followErr error
		wg                sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		top, err := s.tags.GetTopUserTags(ctx, user.PublicID, s.opts.TopTags)
		if err != nil {
			tagErr = err
			return
		}
		tags = tagNames(top)
	}()
	go func() {
		defer wg.Done()
		followees, followErr = s.followingIDs(ctx, user.PublicID)
	}()
	wg.Wait()

	if tagErr != nil {
		s.logger.Warn("tag preferences unavailable", zap.String("viewerId", viewerID), zap.Error(tagErr))
	}
	if followErr != nil {
		s.logger.Warn("following ids unavailable", zap.String("viewerId", viewerID), zap.Error(followErr))
	}

	var (
		page     *models.CursorPage
		strategy models.FeedStrategy
	)
	if len(followees) == 0 && len(tags) == 0 {
		strategy = models.StrategyColdStart
		// a failed lookup is not evidence of a cold-start user
		if cursor == "" && tagErr == nil && followErr == nil {
			s.publishColdStart(ctx, user.PublicID)
		}
		page, err = s.rankedFeed(ctx, limit, cursor)
	} else {
		strategy = models.StrategyPersonalized
		page, err = s.ranked.GetFeedForUserCoreWithCursor(ctx, followees, tags, limit, cursor)
	}
	if err != nil {
		if utils.IsKind(err, utils.KindValidation) {
			return nil, err
		}
		s.logger.Warn("ranked feed query failed, serving empty page",
			zap.String("viewerId", viewerID), zap.String("strategy", string(strategy)), zap.Error(err))
		utils.FeedDegraded.WithLabelValues(string(strategy)).Inc()
		page = models.EmptyPage()
	}

	utils.FeedRequests.WithLabelValues(string(strategy)).Inc()
	return toResponse(strategy, page), nil
}

// GetCachedFeed reads viewerID's precomputed for_you sorted set.
func (s *Service) GetCachedFeed(ctx context.Context, viewerID string, limit int, cursor string) (*models.FeedResponse, error) {
	page, err := s.feeds.GetFeedWithCursor(ctx, viewerID, s.clampLimit(limit), cursor, models.FeedForYou)
	return s.storeRead(models.StrategyCached, page, err)
}

// GetTrendingFeed reads the global trending sorted set.
func (s *Service) GetTrendingFeed(ctx context.Context, limit int, cursor string) (*models.FeedResponse, error) {
	page, err := s.feeds.GetTrendingFeedWithCursor(ctx, s.clampLimit(limit), cursor)
	return s.storeRead(models.StrategyTrending, page, err)
}

func (s *Service) storeRead(strategy models.FeedStrategy, page *models.CursorPage, err error) (*models.FeedResponse, error) {
	if err != nil {
		if utils.IsKind(err, utils.KindValidation) {
			return nil, err
		}
		s.logger.Warn("feed store read failed, serving empty page",
			zap.String("strategy", string(strategy)), zap.Error(err))
		utils.FeedDegraded.WithLabelValues(string(strategy)).Inc()
		page = models.EmptyPage()
	}
	utils.FeedRequests.WithLabelValues(string(strategy)).Inc()
	return toResponse(strategy, page), nil
}

// followingIDs serves the followee list from the short-lived cache, falling
// back to the graph store and repopulating the cache on a miss.
func (s *Service) followingIDs(ctx context.Context, userID string) ([]string, error) {
	key := utils.FollowingKey(userID)
	raw, err := s.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []string
		if jsonErr := json.Unmarshal(raw, &ids); jsonErr == nil {
			return ids, nil
		}
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("following cache read failed", zap.String("userId", userID), zap.Error(err))
	}

	ids, err := s.graph.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	if encoded, err := json.Marshal(ids); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.opts.FollowingCacheTTL).Err(); err != nil {
			s.logger.Warn("following cache write failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return ids, nil
}

// rankedFeed serves the tag-agnostic ranked feed. First pages are cached for
// a lifetime sized by platform activity.
func (s *Service) rankedFeed(ctx context.Context, limit int, cursor string) (*models.CursorPage, error) {
	if cursor != "" {
		return s.ranked.GetRankedFeedWithCursor(ctx, nil, limit, cursor)
	}

	key := utils.RankedPageKey(limit)
	if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var page models.CursorPage
		if json.Unmarshal(raw, &page) == nil {
			return &page, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("ranked page cache read failed", zap.Error(err))
	}

	page, err := s.ranked.GetRankedFeedWithCursor(ctx, nil, limit, "")
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(page); err == nil {
		ttl := s.activity.CalculateDynamicTTL(ctx)
		if err := s.cache.Set(ctx, key, encoded, ttl).Err(); err != nil {
			s.logger.Warn("ranked page cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

func (s *Service) publishColdStart(ctx context.Context, userID string) {
	payload := models.ColdStartPayload{UserID: userID, GeneratedAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, models.EventColdStartFeedGenerated, payload); err != nil {
		s.logger.Warn("cold start event not published", zap.String("userId", userID), zap.Error(err))
		return
	}
	s.logger.Info("cold start feed generated", zap.String("userId", userID))
}

func tagNames(tags []models.UserTag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Tag != "" {
			out = append(out, t.Tag)
		}
	}
	return out
}

func toResponse(strategy models.FeedStrategy, page *models.CursorPage) *models.FeedResponse {
	ids := page.IDs
	if ids == nil {
		ids = []string{}
	}
	return &models.FeedResponse{
		Strategy:   strategy,
		IDs:        ids,
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	}
}
