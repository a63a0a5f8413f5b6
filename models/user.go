package models

import "time"

// User is the subset of the user document the feed core reads.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	PublicID  string    `bson:"publicId" json:"publicId"`
	Username  string    `bson:"username" json:"username"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// UserTag is a weighted interest tag derived from a user's interactions.
type UserTag struct {
	UserID string  `bson:"userId" json:"-"`
	Tag    string  `bson:"tag" json:"tag"`
	Weight float64 `bson:"weight" json:"weight"`
}

// Follow is an edge of the social graph: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID string    `bson:"followerId"`
	FolloweeID string    `bson:"followeeId"`
	CreatedAt  time.Time `bson:"createdAt"`
}
