package ranking

import (
	"context"
	"sync"
	"time"

	"socialfeed/models"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) FindByPublicID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeTags struct {
	tags map[string][]models.UserTag
	err  error
}

func (f *fakeTags) GetTopUserTags(_ context.Context, userID string, _ int) ([]models.UserTag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[userID], nil
}

type fakeGraph struct {
	mu             sync.Mutex
	following      map[string][]string
	followers      map[string][]string
	followingErr   error
	followerErr    error
	followingCalls int
}

func (f *fakeGraph) GetFollowingIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followingCalls++
	if f.followingErr != nil {
		return nil, f.followingErr
	}
	return f.following[userID], nil
}

func (f *fakeGraph) GetFollowerIDs(_ context.Context, userID string) ([]string, error) {
	if f.followerErr != nil {
		return nil, f.followerErr
	}
	return f.followers[userID], nil
}

type coreCall struct {
	followees, tags []string
	cursor          string
}

type fakeRanked struct {
	mu          sync.Mutex
	pages       map[string]*models.CursorPage
	err         error
	rankedCalls int
	coreCalls   []coreCall
}

func (f *fakeRanked) GetRankedFeedWithCursor(_ context.Context, _ []string, _ int, cursor string) (*models.CursorPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rankedCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.page(cursor), nil
}

func (f *fakeRanked) GetFeedForUserCoreWithCursor(_ context.Context, followees, tags []string, _ int, cursor string) (*models.CursorPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coreCalls = append(f.coreCalls, coreCall{followees: followees, tags: tags, cursor: cursor})
	if f.err != nil {
		return nil, f.err
	}
	return f.page(cursor), nil
}

func (f *fakeRanked) page(cursor string) *models.CursorPage {
	if p, ok := f.pages[cursor]; ok {
		return p
	}
	return models.EmptyPage()
}

type published struct {
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, published{eventType: eventType, payload: payload})
	return nil
}

func (f *fakePublisher) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type fakeActivity struct {
	mu      sync.Mutex
	tracked []string
	ttl     time.Duration
}

func (f *fakeActivity) TrackPostCreated(_ context.Context, actorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, actorID)
}

func (f *fakeActivity) CalculateDynamicTTL(context.Context) time.Duration {
	return f.ttl
}
