package models

// FeedType namespaces sorted-set feeds in the cache.
type FeedType string

const (
	FeedForYou    FeedType = "for_you"
	FeedTrending  FeedType = "trending"
	FeedFollowing FeedType = "following"
)

// GlobalSubject is the subject ID used by feeds that are not per-user.
const GlobalSubject = "global"

// FeedEntry is one (score, member) pair of a sorted feed.
type FeedEntry struct {
	Score  float64 `json:"score"`
	PostID string  `json:"postId"`
}

// Cursor is the decoded form of a pagination token. It carries the last
// returned (score, id) pair.
type Cursor struct {
	Score    float64 `json:"score"`
	MemberID string  `json:"id"`
}

// CursorPage is one page of a cursor-paginated feed.
type CursorPage struct {
	IDs        []string `json:"ids"`
	HasMore    bool     `json:"hasMore"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// EmptyPage returns a page with no items and no continuation.
func EmptyPage() *CursorPage {
	return &CursorPage{IDs: []string{}}
}

// FeedStrategy records which branch produced a personalized feed page.
type FeedStrategy string

const (
	StrategyPersonalized FeedStrategy = "personalized"
	StrategyColdStart    FeedStrategy = "cold_start"
	StrategyCached       FeedStrategy = "cached"
	StrategyTrending     FeedStrategy = "trending"
)

// FeedResponse is the API shape returned by the feed endpoints.
type FeedResponse struct {
	Strategy   FeedStrategy `json:"strategy"`
	IDs        []string     `json:"ids"`
	HasMore    bool         `json:"hasMore"`
	NextCursor string       `json:"nextCursor,omitempty"`
}
