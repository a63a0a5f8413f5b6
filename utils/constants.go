// File: utils/constants.go
package utils

import (
	"fmt"

	"socialfeed/models"
)

// Cache key prefixes. Every key family has its own prefix so feed types and
// caches never collide.
const (
	FeedKeyPrefix       = "feed:"
	FollowingKeyPrefix  = "following:"
	BloomKeyPrefix      = "bf:"
	RankedPageKeyPrefix = "ranked:page:"

	ActivityMetricsKey     = "activity:metrics"
	ActivityActiveUsersKey = "activity:active_users"
)

// FeedKey returns the sorted-set key for a (feedType, subjectId) pair.
func FeedKey(feedType models.FeedType, subjectID string) string {
	return fmt.Sprintf("%s%s:%s", FeedKeyPrefix, feedType, subjectID)
}

// FollowingKey returns the cache key for a user's followee-id list.
func FollowingKey(userID string) string {
	return FollowingKeyPrefix + userID
}

// BloomKey returns the bit-array key for a bloom filter namespace.
func BloomKey(namespace string) string {
	return BloomKeyPrefix + namespace
}

// RankedPageKey returns the cache key for the first page of the global ranked feed.
func RankedPageKey(limit int) string {
	return fmt.Sprintf("%s%d", RankedPageKeyPrefix, limit)
}
