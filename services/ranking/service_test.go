package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialfeed/models"
	"socialfeed/services/feed"
	"socialfeed/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	svc       *Service
	mr        *miniredis.Miniredis
	store     *feed.Store
	users     *fakeUsers
	tags      *fakeTags
	graph     *fakeGraph
	ranked    *fakeRanked
	publisher *fakePublisher
	activity  *fakeActivity
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		mr:    mr,
		store: feed.NewStore(client, time.Hour, zap.NewNop()),
		users: &fakeUsers{users: map[string]*models.User{
			"viewer": {PublicID: "viewer"},
			"author": {PublicID: "author"},
		}},
		tags:  &fakeTags{tags: map[string][]models.UserTag{}},
		graph: &fakeGraph{following: map[string][]string{}, followers: map[string][]string{}},
		ranked: &fakeRanked{pages: map[string]*models.CursorPage{
			"":   {IDs: []string{"a", "b"}, HasMore: true, NextCursor: "c1"},
			"c1": {IDs: []string{"c"}},
		}},
		publisher: &fakePublisher{},
		activity:  &fakeActivity{ttl: 5 * time.Minute},
	}
	h.svc = NewService(Deps{
		Users:     h.users,
		Tags:      h.tags,
		Graph:     h.graph,
		Ranked:    h.ranked,
		Feeds:     h.store,
		Cache:     client,
		Publisher: h.publisher,
		Activity:  h.activity,
	}, DefaultOptions(), zap.NewNop())
	return h
}

func TestGenerate_UnknownViewerIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "ghost", 10, "")
	assert.True(t, utils.IsKind(err, utils.KindNotFound), "got %v", err)
}

func TestGenerate_UserLookupFailureIsDatabaseError(t *testing.T) {
	h := newHarness(t)
	h.users.err = errors.New("mongo down")

	_, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 10, "")
	assert.True(t, utils.IsKind(err, utils.KindDatabase), "got %v", err)
}

func TestGenerate_ColdStartEventFiresOncePerSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyColdStart, first.Strategy)
	assert.Equal(t, []string{"a", "b"}, first.IDs)
	require.True(t, first.HasMore)

	second, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, second.IDs)
	assert.False(t, second.HasMore)

	assert.Equal(t, 1, h.publisher.count(models.EventColdStartFeedGenerated))
	assert.Empty(t, h.ranked.coreCalls)
}

func TestGenerate_ColdStartPublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("queue full")

	resp, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, resp.IDs)
}

func TestGenerate_PersonalizedUsesFolloweesAndTags(t *testing.T) {
	h := newHarness(t)
	h.graph.following["viewer"] = []string{"author"}
	h.tags.tags["viewer"] = []models.UserTag{{Tag: "go", Weight: 3}, {Tag: "redis", Weight: 1}}

	resp, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyPersonalized, resp.Strategy)
	assert.Equal(t, []string{"a", "b"}, resp.IDs)

	require.Len(t, h.ranked.coreCalls, 1)
	assert.Equal(t, []string{"author"}, h.ranked.coreCalls[0].followees)
	assert.Equal(t, []string{"go", "redis"}, h.ranked.coreCalls[0].tags)
	assert.Zero(t, h.publisher.count(models.EventColdStartFeedGenerated))
}

func TestGenerate_TagsAloneArePersonalized(t *testing.T) {
	h := newHarness(t)
	h.tags.tags["viewer"] = []models.UserTag{{Tag: "go", Weight: 1}}

	resp, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyPersonalized, resp.Strategy)
	assert.Zero(t, h.publisher.count(models.EventColdStartFeedGenerated))
}

func TestGenerate_FollowingIDsAreCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.graph.following["viewer"] = []string{"author"}

	for i := 0; i < 3; i++ {
		_, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.graph.followingCalls)
	assert.Equal(t, 60*time.Second, h.mr.TTL(utils.FollowingKey("viewer")))

	// expiry falls back to the graph store
	h.mr.FastForward(61 * time.Second)
	_, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 2, h.graph.followingCalls)
}

func TestGenerate_LookupFailureSuppressesColdStartEvent(t *testing.T) {
	h := newHarness(t)
	h.graph.followingErr = errors.New("graph down")

	resp, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyColdStart, resp.Strategy)
	assert.Zero(t, h.publisher.count(models.EventColdStartFeedGenerated))
}

func TestGenerate_QueryFailureDegradesToEmptyPage(t *testing.T) {
	h := newHarness(t)
	h.graph.following["viewer"] = []string{"author"}
	h.ranked.err = errors.New("query timeout")

	resp, err := h.svc.GeneratePersonalizedCoreFeed(context.Background(), "viewer", 2, "")
	require.NoError(t, err)
	assert.Empty(t, resp.IDs)
	assert.False(t, resp.HasMore)
}

func TestGenerate_RankedFirstPageIsCachedWithDynamicTTL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, h.mr.TTL(utils.RankedPageKey(2)))

	resp, err := h.svc.GeneratePersonalizedCoreFeed(ctx, "viewer", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, resp.IDs)
	assert.Equal(t, "c1", resp.NextCursor)
	assert.Equal(t, 1, h.ranked.rankedCalls)
}

func TestGenerate_LimitIsClamped(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 20, h.svc.clampLimit(0))
	assert.Equal(t, 100, h.svc.clampLimit(1000))
	assert.Equal(t, 7, h.svc.clampLimit(7))
}

func TestGetCachedFeed_ReadsSortedSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.AddToFeed(ctx, "viewer", "p1", 2, models.FeedForYou))
	require.NoError(t, h.store.AddToFeed(ctx, "viewer", "p2", 1, models.FeedForYou))

	resp, err := h.svc.GetCachedFeed(ctx, "viewer", 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCached, resp.Strategy)
	assert.Equal(t, []string{"p1"}, resp.IDs)
	assert.True(t, resp.HasMore)

	next, err := h.svc.GetCachedFeed(ctx, "viewer", 1, resp.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, next.IDs)
}

func TestGetCachedFeed_BackendDownServesEmptyPage(t *testing.T) {
	h := newHarness(t)
	h.mr.Close()

	resp, err := h.svc.GetCachedFeed(context.Background(), "viewer", 5, "")
	require.NoError(t, err)
	assert.Empty(t, resp.IDs)

	trending, err := h.svc.GetTrendingFeed(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Empty(t, trending.IDs)
}

func TestGetCachedFeed_BadCursorIsValidationError(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GetCachedFeed(context.Background(), "viewer", 5, "!!")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}
