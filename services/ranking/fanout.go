package ranking

import (
	"context"

	"socialfeed/models"
	"socialfeed/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PublishPost writes postID into the for_you feed of the author and every
// follower in one batch, then records the post for activity tracking. It
// returns how many feeds were written.
func (s *Service) PublishPost(ctx context.Context, postID, authorID string, score float64) (int, error) {
	const op = "ranking.PublishPost"
	if postID == "" || authorID == "" {
		return 0, utils.NewValidationError(op, "postId and authorId are required")
	}

	subjects := s.audience(ctx, authorID)
	if err := s.feeds.AddToFeedsBatch(ctx, subjects, postID, score, models.FeedForYou); err != nil {
		return 0, err
	}

	s.activity.TrackPostCreated(ctx, authorID)

	payload := models.PostPublishedPayload{
		PostID:    postID,
		AuthorID:  authorID,
		Score:     score,
		Followers: len(subjects) - 1,
	}
	if err := s.publisher.Publish(ctx, models.EventPostPublished, payload); err != nil {
		s.logger.Warn("post published event not sent", zap.String("postId", postID), zap.Error(err))
	}
	return len(subjects), nil
}

// RetractPost removes postID from the audience's feeds and from trending.
func (s *Service) RetractPost(ctx context.Context, postID, authorID string) error {
	const op = "ranking.RetractPost"
	if postID == "" || authorID == "" {
		return utils.NewValidationError(op, "postId and authorId are required")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.feeds.RemoveFromFeedsBatch(gctx, s.audience(gctx, authorID), postID, models.FeedForYou)
	})
	g.Go(func() error {
		return s.feeds.RemoveFromFeed(gctx, models.GlobalSubject, postID, models.FeedTrending)
	})
	return g.Wait()
}

// audience is the author plus their followers. A failed follower lookup
// shrinks the audience to the author alone.
func (s *Service) audience(ctx context.Context, authorID string) []string {
	followers, err := s.graph.GetFollowerIDs(ctx, authorID)
	if err != nil {
		s.logger.Warn("follower lookup failed, skipping fan-out",
			zap.String("authorId", authorID), zap.Error(err))
		utils.FeedDegraded.WithLabelValues("fanout").Inc()
		followers = nil
	}
	subjects := make([]string, 0, len(followers)+1)
	subjects = append(subjects, authorID)
	for _, f := range followers {
		if f != authorID {
			subjects = append(subjects, f)
		}
	}
	return subjects
}
