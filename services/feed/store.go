// File: services/feed/store.go
package feed

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"socialfeed/models"
	"socialfeed/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// cursorOverfetch is how many extra candidates a cursor read requests so
// that entries tied with the cursor score can be filtered without a second
// round trip in the common case.
const cursorOverfetch = 10

// DefaultForYouTTL bounds the retention of personalized feeds.
const DefaultForYouTTL = time.Hour

// Store keeps per-subject feeds as Redis sorted sets of post IDs.
type Store struct {
	client    redis.Cmdable
	forYouTTL time.Duration
	logger    *zap.Logger
}

// NewStore returns a Store. forYouTTL is refreshed on every for_you key
// written through AddToFeed, AddToFeedsBatch and AddEntries; zero means
// DefaultForYouTTL. Other feed types keep whatever expiry they already have.
func NewStore(client redis.Cmdable, forYouTTL time.Duration, logger *zap.Logger) *Store {
	if forYouTTL <= 0 {
		forYouTTL = DefaultForYouTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, forYouTTL: forYouTTL, logger: logger}
}

// AddToFeed upserts postID with score into subjectID's feed and refreshes the key TTL.
func (s *Store) AddToFeed(ctx context.Context, subjectID, postID string, score float64, feedType models.FeedType) error {
	return s.AddToFeedsBatch(ctx, []string{subjectID}, postID, score, feedType)
}

// AddToFeedsBatch writes one post into many subjects' feeds in one MULTI.
func (s *Store) AddToFeedsBatch(ctx context.Context, subjectIDs []string, postID string, score float64, feedType models.FeedType) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	if err := utils.ValidateScore("feed.AddToFeedsBatch", score); err != nil {
		return err
	}
	ttl := s.ttlFor(feedType)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range subjectIDs {
			key := utils.FeedKey(feedType, id)
			pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: postID})
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
		}
		return nil
	})
	if err != nil {
		return utils.NewDatabaseError("feed.AddToFeedsBatch", err)
	}
	return nil
}

// AddEntries upserts several posts into one subject's feed.
func (s *Store) AddEntries(ctx context.Context, subjectID string, feedType models.FeedType, entries []models.FeedEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries("feed.AddEntries", entries); err != nil {
		return err
	}
	key := utils.FeedKey(feedType, subjectID)
	ttl := s.ttlFor(feedType)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, toZ(entries)...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return utils.NewDatabaseError("feed.AddEntries", err)
	}
	return nil
}

// ReplaceFeed swaps the whole content of a feed atomically.
func (s *Store) ReplaceFeed(ctx context.Context, subjectID string, feedType models.FeedType, entries []models.FeedEntry, ttl time.Duration) error {
	if err := validateEntries("feed.ReplaceFeed", entries); err != nil {
		return err
	}
	key := utils.FeedKey(feedType, subjectID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entries) > 0 {
			pipe.ZAdd(ctx, key, toZ(entries)...)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
		}
		return nil
	})
	if err != nil {
		return utils.NewDatabaseError("feed.ReplaceFeed", err)
	}
	return nil
}

// RemoveFromFeed removes postID from subjectID's feed.
func (s *Store) RemoveFromFeed(ctx context.Context, subjectID, postID string, feedType models.FeedType) error {
	return s.RemoveFromFeedsBatch(ctx, []string{subjectID}, postID, feedType)
}

// RemoveFromFeedsBatch removes postID from many feeds in one MULTI.
func (s *Store) RemoveFromFeedsBatch(ctx context.Context, subjectIDs []string, postID string, feedType models.FeedType) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range subjectIDs {
			pipe.ZRem(ctx, utils.FeedKey(feedType, id), postID)
		}
		return nil
	})
	if err != nil {
		return utils.NewDatabaseError("feed.RemoveFromFeedsBatch", err)
	}
	return nil
}

// GetFeedPage is the offset-based read. page starts at 1.
func (s *Store) GetFeedPage(ctx context.Context, subjectID string, page, limit int, feedType models.FeedType) ([]string, error) {
	if limit <= 0 {
		return nil, utils.NewValidationError("feed.GetFeedPage", fmt.Sprintf("limit must be > 0, got %d", limit))
	}
	if page < 1 {
		page = 1
	}
	start := int64((page - 1) * limit)
	ids, err := s.client.ZRevRange(ctx, utils.FeedKey(feedType, subjectID), start, start+int64(limit)-1).Result()
	if err != nil {
		return nil, utils.NewDatabaseError("feed.GetFeedPage", err)
	}
	return ids, nil
}

// GetFeedWithCursor returns up to limit post IDs in descending (score, id)
// order, starting strictly after cursor. An empty cursor starts at the top.
func (s *Store) GetFeedWithCursor(ctx context.Context, subjectID string, limit int, cursor string, feedType models.FeedType) (*models.CursorPage, error) {
	if limit <= 0 {
		return nil, utils.NewValidationError("feed.GetFeedWithCursor", fmt.Sprintf("limit must be > 0, got %d", limit))
	}

	maxScore := "+inf"
	var cur *models.Cursor
	if cursor != "" {
		c, err := utils.DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		cur = &c
		// inclusive: entries tied with the cursor score are resolved by member below
		maxScore = formatScore(c.Score)
	}

	key := utils.FeedKey(feedType, subjectID)
	want := limit + 1
	batch := int64(limit + cursorOverfetch)
	kept := make([]redis.Z, 0, want)

	for offset := int64(0); len(kept) < want; {
		zs, err := s.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    maxScore,
			Offset: offset,
			Count:  batch,
		}).Result()
		if err != nil {
			return nil, utils.NewDatabaseError("feed.GetFeedWithCursor", err)
		}
		for _, z := range zs {
			if cur != nil && !utils.CursorAfter(z.Score, memberString(z), *cur) {
				continue
			}
			kept = append(kept, z)
			if len(kept) == want {
				break
			}
		}
		if int64(len(zs)) < batch {
			break
		}
		offset += int64(len(zs))
	}

	page := &models.CursorPage{IDs: make([]string, 0, limit)}
	if len(kept) > limit {
		kept = kept[:limit]
		page.HasMore = true
		last := kept[limit-1]
		next, err := utils.EncodeCursor(models.Cursor{Score: last.Score, MemberID: memberString(last)})
		if err != nil {
			// a non-finite score can only come from a writer outside this store
			return nil, utils.NewDatabaseError("feed.GetFeedWithCursor", err)
		}
		page.NextCursor = next
	}
	for _, z := range kept {
		page.IDs = append(page.IDs, memberString(z))
	}
	return page, nil
}

// GetFeedEntries returns the top limit entries of a feed with their scores.
func (s *Store) GetFeedEntries(ctx context.Context, subjectID string, feedType models.FeedType, limit int) ([]models.FeedEntry, error) {
	if limit <= 0 {
		return nil, utils.NewValidationError("feed.GetFeedEntries", fmt.Sprintf("limit must be > 0, got %d", limit))
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, utils.FeedKey(feedType, subjectID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, utils.NewDatabaseError("feed.GetFeedEntries", err)
	}
	entries := make([]models.FeedEntry, 0, len(zs))
	for _, z := range zs {
		entries = append(entries, models.FeedEntry{Score: z.Score, PostID: memberString(z)})
	}
	return entries, nil
}

// GetTrendingFeedWithCursor reads the global trending feed.
func (s *Store) GetTrendingFeedWithCursor(ctx context.Context, limit int, cursor string) (*models.CursorPage, error) {
	return s.GetFeedWithCursor(ctx, models.GlobalSubject, limit, cursor, models.FeedTrending)
}

// TrackMember adds member to a time-ranked set, drops entries scored below
// pruneBefore, refreshes the TTL and returns the resulting cardinality, all
// in one MULTI.
func (s *Store) TrackMember(ctx context.Context, key, member string, score, pruneBefore float64, ttl time.Duration) (int64, error) {
	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: member})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+formatScore(pruneBefore))
		pipe.Expire(ctx, key, ttl)
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, utils.NewDatabaseError("feed.TrackMember", err)
	}
	return card.Val(), nil
}

// ZAdd is a passthrough for callers maintaining their own sorted sets.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if err := utils.ValidateScore("feed.ZAdd", score); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
}

// ZRangeByScore returns members with lo <= score <= hi in ascending order.
func (s *Store) ZRangeByScore(ctx context.Context, key string, lo, hi float64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: formatScore(lo),
		Max: formatScore(hi),
	}).Result()
}

// ZRemRangeByScore removes members with lo <= score <= hi.
func (s *Store) ZRemRangeByScore(ctx context.Context, key string, lo, hi float64) (int64, error) {
	return s.client.ZRemRangeByScore(ctx, key, formatScore(lo), formatScore(hi)).Result()
}

// Expire sets a TTL on key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// ttlFor is the expiry refreshed on writes to feedType. Zero leaves the key's
// expiry untouched.
func (s *Store) ttlFor(feedType models.FeedType) time.Duration {
	if feedType == models.FeedForYou {
		return s.forYouTTL
	}
	return 0
}

func validateEntries(op string, entries []models.FeedEntry) error {
	for _, e := range entries {
		if err := utils.ValidateScore(op, e.Score); err != nil {
			return err
		}
	}
	return nil
}

func toZ(entries []models.FeedEntry) []*redis.Z {
	zs := make([]*redis.Z, 0, len(entries))
	for _, e := range entries {
		zs = append(zs, &redis.Z{Score: e.Score, Member: e.PostID})
	}
	return zs
}

func memberString(z redis.Z) string {
	if s, ok := z.Member.(string); ok {
		return s
	}
	return fmt.Sprint(z.Member)
}

func formatScore(score float64) string {
	switch {
	case math.IsInf(score, 1):
		return "+inf"
	case math.IsInf(score, -1):
		return "-inf"
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}
