package ranking

import (
	"context"
	"testing"

	"socialfeed/services/bloom"
	"socialfeed/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeenService(t *testing.T) (*SeenService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSeenService(bloom.NewFilter(client, zap.NewNop()), DefaultSeenOptions), mr
}

func TestSeenService_MarkAndCheck(t *testing.T) {
	s, mr := newSeenService(t)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "viewer", []string{"p1", "p2"}))

	seen, err := s.HasSeen(ctx, "viewer", "p1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.HasSeen(ctx, "other", "p1")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.Equal(t, seenTTL, mr.TTL(seenKey("viewer")))

	unseen, err := s.FilterUnseen(ctx, "viewer", []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Contains(t, unseen, "p3")
	assert.NotContains(t, unseen, "p1")
	assert.NotContains(t, unseen, "p2")
}

func TestSeenService_FailsClosed(t *testing.T) {
	s, mr := newSeenService(t)
	mr.Close()

	_, err := s.HasSeen(context.Background(), "viewer", "p1")
	assert.True(t, utils.IsKind(err, utils.KindDatabase))

	_, err = s.FilterUnseen(context.Background(), "viewer", []string{"p1"})
	assert.True(t, utils.IsKind(err, utils.KindDatabase))
}
