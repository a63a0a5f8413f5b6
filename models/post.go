package models

import "time"

// Post is the ranked view of a post as stored in the posts collection.
// RankScore and TrendScore are maintained by the write side.
type Post struct {
	PublicID   string    `bson:"publicId" json:"publicId"`
	AuthorID   string    `bson:"authorId" json:"authorId"`
	Tags       []string  `bson:"tags" json:"tags"`
	RankScore  float64   `bson:"rankScore" json:"rankScore"`
	TrendScore float64   `bson:"trendScore" json:"trendScore"`
	Deleted    bool      `bson:"deleted" json:"-"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}
