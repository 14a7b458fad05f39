package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthpulse/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

var recipientProjection = bson.M{"id": 1, "fcmToken": 1}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) (UserRepository, error) {
	repo := &MongoUserRepo{coll: db.Collection("users")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) ListRecipients(ctx context.Context, afterID string, limit int) ([]models.Recipient, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if afterID != "" {
		filter["id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().
		SetProjection(recipientProjection).
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.Recipient
	for cursor.Next(ctx) {
		var u models.Recipient
		if err := cursor.Decode(&u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, u)
	}
	return users, cursor.Err()
}

func (r *MongoUserRepo) GetRecipient(ctx context.Context, id string) (*models.Recipient, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var u models.Recipient
	opts := options.FindOne().SetProjection(recipientProjection)
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &u, nil
}

func (r *MongoUserRepo) UpsertFCMToken(ctx context.Context, id, token string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{
			"$set":         bson.M{"fcmToken": token, "updatedAt": time.Now().UTC()},
			"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update fcm token for user %s: %w", id, err)
	}
	return nil
}
