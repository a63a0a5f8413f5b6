package ranking

import (
	"context"
	"time"

	"socialfeed/services/bloom"
	"socialfeed/utils"
)

// seenTTL bounds how long a viewer's seen filter lives.
const seenTTL = 7 * 24 * time.Hour

// DefaultSeenOptions size a per-viewer seen filter.
var DefaultSeenOptions = bloom.Options{ExpectedItems: 10000, FalsePositiveRate: 0.01}

// SeenService records which posts a viewer has seen. Backend failures are
// returned, never answered with a guess.
type SeenService struct {
	filter MembershipFilter
	opts   bloom.Options
	ttl    time.Duration
}

// NewSeenService returns a SeenService using opts for every viewer filter.
func NewSeenService(filter MembershipFilter, opts bloom.Options) *SeenService {
	return &SeenService{filter: filter, opts: opts, ttl: seenTTL}
}

func seenKey(viewerID string) string {
	return utils.BloomKey("seen:" + viewerID)
}

// MarkSeen adds postIDs to the viewer's filter.
func (s *SeenService) MarkSeen(ctx context.Context, viewerID string, postIDs []string) error {
	if viewerID == "" {
		return utils.NewValidationError("ranking.MarkSeen", "viewerId is required")
	}
	key := seenKey(viewerID)
	for _, id := range postIDs {
		if err := s.filter.AddWithTTL(ctx, key, id, s.opts, s.ttl); err != nil {
			return err
		}
	}
	return nil
}

// HasSeen reports whether the viewer may have seen postID.
func (s *SeenService) HasSeen(ctx context.Context, viewerID, postID string) (bool, error) {
	if viewerID == "" {
		return false, utils.NewValidationError("ranking.HasSeen", "viewerId is required")
	}
	return s.filter.MightContain(ctx, seenKey(viewerID), postID, s.opts)
}

// FilterUnseen drops the posts the viewer has probably seen.
func (s *SeenService) FilterUnseen(ctx context.Context, viewerID string, postIDs []string) ([]string, error) {
	out := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		seen, err := s.HasSeen(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out, nil
}
