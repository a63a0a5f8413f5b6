package postRepo

import (
	"context"
	"fmt"
	"time"

	"socialfeed/models"
	"socialfeed/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository serves the ranked and trending reads over the posts collection.
type PostRepository interface {
	GetRankedFeedWithCursor(ctx context.Context, tags []string, limit int, cursor string) (*models.CursorPage, error)
	GetFeedForUserCoreWithCursor(ctx context.Context, followeeIDs, tags []string, limit int, cursor string) (*models.CursorPage, error)
	FetchTrendingPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error)
}

// MongoPostRepo implements PostRepository using MongoDB.
type MongoPostRepo struct {
	coll *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	repo := &MongoPostRepo{coll: db.Collection("posts")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPostRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "publicId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "rankScore", Value: -1}, {Key: "publicId", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}, {Key: "rankScore", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "rankScore", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "trendScore", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetRankedFeedWithCursor pages the global ranking, narrowed to tags when any are given.
func (r *MongoPostRepo) GetRankedFeedWithCursor(ctx context.Context, tags []string, limit int, cursor string) (*models.CursorPage, error) {
	return r.page(ctx, rankedFilter(tags), limit, cursor)
}

// GetFeedForUserCoreWithCursor pages posts by followed authors or matching tags.
func (r *MongoPostRepo) GetFeedForUserCoreWithCursor(ctx context.Context, followeeIDs, tags []string, limit int, cursor string) (*models.CursorPage, error) {
	return r.page(ctx, coreFilter(followeeIDs, tags), limit, cursor)
}

// FetchTrendingPosts returns the highest trend scores among posts created since.
func (r *MongoPostRepo) FetchTrendingPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error) {
	filter := bson.M{"deleted": bson.M{"$ne": true}, "createdAt": bson.M{"$gte": since}}
	opts := options.Find().
		SetSort(bson.D{{Key: "trendScore", Value: -1}, {Key: "publicId", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode trending posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepo) page(ctx context.Context, base bson.M, limit int, cursor string) (*models.CursorPage, error) {
	const op = "MongoPostRepo.page"
	if limit <= 0 {
		return nil, utils.NewValidationError(op, "limit must be positive")
	}
	var after *models.Cursor
	if cursor != "" {
		c, err := utils.DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		after = &c
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rankScore", Value: -1}, {Key: "publicId", Value: -1}}).
		SetLimit(int64(limit + 1)).
		SetProjection(bson.M{"publicId": 1, "rankScore": 1})

	cur, err := r.coll.Find(ctx, withCursor(base, after), opts)
	if err != nil {
		return nil, utils.NewDatabaseError(op, err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, utils.NewDatabaseError(op, err)
	}
	page, err := toPage(posts, limit)
	if err != nil {
		return nil, utils.NewDatabaseError(op, err)
	}
	return page, nil
}

func rankedFilter(tags []string) bson.M {
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if len(tags) > 0 {
		filter["tags"] = bson.M{"$in": tags}
	}
	return filter
}

func coreFilter(followeeIDs, tags []string) bson.M {
	var either bson.A
	if len(followeeIDs) > 0 {
		either = append(either, bson.M{"authorId": bson.M{"$in": followeeIDs}})
	}
	if len(tags) > 0 {
		either = append(either, bson.M{"tags": bson.M{"$in": tags}})
	}
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if len(either) > 0 {
		filter["$or"] = either
	}
	return filter
}

// withCursor restricts base to entries strictly after the cursor in
// (rankScore desc, publicId desc) order.
func withCursor(base bson.M, after *models.Cursor) bson.M {
	if after == nil {
		return base
	}
	return bson.M{"$and": bson.A{
		base,
		bson.M{"$or": bson.A{
			bson.M{"rankScore": bson.M{"$lt": after.Score}},
			bson.M{"rankScore": after.Score, "publicId": bson.M{"$lt": after.MemberID}},
		}},
	}}
}

func toPage(posts []models.Post, limit int) (*models.CursorPage, error) {
	page := models.EmptyPage()
	if len(posts) > limit {
		page.HasMore = true
		posts = posts[:limit]
	}
	for _, p := range posts {
		page.IDs = append(page.IDs, p.PublicID)
	}
	if page.HasMore {
		last := posts[len(posts)-1]
		next, err := utils.EncodeCursor(models.Cursor{Score: last.RankScore, MemberID: last.PublicID})
		if err != nil {
			return nil, err
		}
		page.NextCursor = next
	}
	return page, nil
}
