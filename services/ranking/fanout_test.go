package ranking

import (
	"context"
	"errors"
	"testing"

	"socialfeed/models"
	"socialfeed/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishPost_FansOutToFollowersAndAuthor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.graph.followers["author"] = []string{"f1", "f2", "author"}

	n, err := h.svc.PublishPost(ctx, "post-1", "author", 42)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, subject := range []string{"author", "f1", "f2"} {
		page, err := h.store.GetFeedWithCursor(ctx, subject, 5, "", models.FeedForYou)
		require.NoError(t, err)
		assert.Equal(t, []string{"post-1"}, page.IDs, subject)
	}
	assert.Equal(t, []string{"author"}, h.activity.tracked)
	assert.Equal(t, 1, h.publisher.count(models.EventPostPublished))
}

func TestPublishPost_FollowerLookupFailureWritesAuthorOnly(t *testing.T) {
	h := newHarness(t)
	h.graph.followerErr = errors.New("graph down")

	n, err := h.svc.PublishPost(context.Background(), "post-1", "author", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPublishPost_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.PublishPost(context.Background(), "", "author", 1)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestRetractPost_RemovesFromFeedsAndTrending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.graph.followers["author"] = []string{"f1"}

	_, err := h.svc.PublishPost(ctx, "post-1", "author", 10)
	require.NoError(t, err)
	require.NoError(t, h.store.AddToFeed(ctx, models.GlobalSubject, "post-1", 10, models.FeedTrending))

	require.NoError(t, h.svc.RetractPost(ctx, "post-1", "author"))

	for _, subject := range []string{"author", "f1"} {
		page, err := h.store.GetFeedWithCursor(ctx, subject, 5, "", models.FeedForYou)
		require.NoError(t, err)
		assert.Empty(t, page.IDs, subject)
	}
	trending, err := h.store.GetTrendingFeedWithCursor(ctx, 5, "")
	require.NoError(t, err)
	assert.Empty(t, trending.IDs)
}

func TestRetractPost_StoreFailureIsReturned(t *testing.T) {
	h := newHarness(t)
	h.graph.followers["author"] = []string{"f1"}
	h.mr.Close()

	err := h.svc.RetractPost(context.Background(), "post-1", "author")
	assert.True(t, utils.IsKind(err, utils.KindDatabase), "got %v", err)
}
