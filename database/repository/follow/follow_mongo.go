package followRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FollowRepository reads the follow graph in both directions.
type FollowRepository interface {
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// MongoFollowRepo implements FollowRepository over the follows collection.
type MongoFollowRepo struct {
	coll *mongo.Collection
}

func NewMongoFollowRepo(db *mongo.Database) *MongoFollowRepo {
	repo := &MongoFollowRepo{coll: db.Collection("follows")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoFollowRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "followerId", Value: 1}, {Key: "followeeId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "followeeId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetFollowingIDs lists the users userID follows.
func (r *MongoFollowRepo) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, "followeeId", bson.M{"followerId": userID})
}

// GetFollowerIDs lists the users following userID.
func (r *MongoFollowRepo) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, "followerId", bson.M{"followeeId": userID})
}

func (r *MongoFollowRepo) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	values, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", field, err)
	}
	return stringValues(values), nil
}

func stringValues(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
