package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"socialfeed/models"

	"go.uber.org/zap"
)

const coldStartSeedSize = 50

// ColdStartSeeder fills a new user's for_you feed from the trending feed.
type ColdStartSeeder struct {
	store  *Store
	logger *zap.Logger
}

func NewColdStartSeeder(store *Store, logger *zap.Logger) *ColdStartSeeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ColdStartSeeder{store: store, logger: logger}
}

// HandleColdStart consumes a cold-start event payload.
func (s *ColdStartSeeder) HandleColdStart(ctx context.Context, payload []byte) error {
	var p models.ColdStartPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode cold start payload: %w", err)
	}
	if p.UserID == "" {
		return fmt.Errorf("cold start payload without userId")
	}

	entries, err := s.store.GetFeedEntries(ctx, models.GlobalSubject, models.FeedTrending, coldStartSeedSize)
	if err != nil {
		return err
	}
	if err := s.store.AddEntries(ctx, p.UserID, models.FeedForYou, entries); err != nil {
		return err
	}
	s.logger.Info("seeded cold start feed", zap.String("userId", p.UserID), zap.Int("entries", len(entries)))
	return nil
}
