package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialfeed/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines lookups over users and their interest tags.
type UserRepository interface {
	FindByPublicID(ctx context.Context, publicID string) (*models.User, error)
	GetTopUserTags(ctx context.Context, userID string, limit int) ([]models.UserTag, error)
}

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	users *mongo.Collection
	tags  *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	repo := &MongoUserRepo{
		users: db.Collection("users"),
		tags:  db.Collection("user_tags"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "publicId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	if _, err := r.tags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "weight", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create tag indexes: %w", err)
	}
	return nil
}

// FindByPublicID returns nil, nil when no user matches.
func (r *MongoUserRepo) FindByPublicID(ctx context.Context, publicID string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"publicId": publicID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", publicID, err)
	}
	return &user, nil
}

// GetTopUserTags returns up to limit tags ordered by descending weight.
func (r *MongoUserRepo) GetTopUserTags(ctx context.Context, userID string, limit int) ([]models.UserTag, error) {
	filter, opts := topTagsQuery(userID, limit)
	cursor, err := r.tags.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	tags := []models.UserTag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", userID, err)
	}
	return tags, nil
}

func topTagsQuery(userID string, limit int) (bson.M, *options.FindOptions) {
	opts := options.Find().
		SetSort(bson.D{{Key: "weight", Value: -1}, {Key: "tag", Value: 1}}).
		SetLimit(int64(limit))
	return bson.M{"userId": userID}, opts
}
