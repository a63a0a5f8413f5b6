package models

import "time"

// Event types carried on the event bus.
const (
	EventColdStartFeedGenerated = "feed:cold_start"
	EventPostPublished          = "post:published"
)

// Event is a message published to the event bus. Payload is JSON.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ColdStartPayload is published once when a user without follows or tag
// preferences requests the first page of their feed.
type ColdStartPayload struct {
	UserID      string    `json:"userId"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// PostPublishedPayload announces a post that was fanned out.
type PostPublishedPayload struct {
	PostID    string  `json:"postId"`
	AuthorID  string  `json:"authorId"`
	Score     float64 `json:"score"`
	Followers int     `json:"followers"`
}
