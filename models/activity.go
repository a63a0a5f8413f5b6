package models

import "time"

// UserActivityMetrics is the process-wide posting activity record kept in
// the cache. PostCount decays exponentially; RecentPostCount counts posts in
// a fixed window starting at RecentWindowStart.
type UserActivityMetrics struct {
	PostCount         float64   `json:"postCount"`
	LastUpdated       time.Time `json:"lastUpdated"`
	RecentPostCount   int       `json:"recentPostCount"`
	RecentWindowStart time.Time `json:"recentWindowStart"`
	UniquePosters     int       `json:"uniquePosters"`
}

// PlatformActivityLevel is a coarse classification of platform activity.
type PlatformActivityLevel string

const (
	ActivityHigh    PlatformActivityLevel = "high"
	ActivityMedium  PlatformActivityLevel = "medium"
	ActivityLow     PlatformActivityLevel = "low"
	ActivityDormant PlatformActivityLevel = "dormant"
)

// Rank orders levels from dormant (0) to high (3).
func (l PlatformActivityLevel) Rank() int {
	switch l {
	case ActivityHigh:
		return 3
	case ActivityMedium:
		return 2
	case ActivityLow:
		return 1
	default:
		return 0
	}
}

// ActivitySnapshot is returned by the activity endpoint.
type ActivitySnapshot struct {
	Level      PlatformActivityLevel `json:"level"`
	TTLSeconds int                   `json:"ttlSeconds"`
	Metrics    *UserActivityMetrics  `json:"metrics,omitempty"`
}
