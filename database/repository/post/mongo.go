package postRepo

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

type mongoPostRepo struct {
	coll *mongo.Collection
}

// NewMongoPostRepo returns a PostRepository backed by MongoDB.
func NewMongoPostRepo(db *mongo.Database) (PostRepository, error) {
	repo := &mongoPostRepo{coll: db.Collection("posts")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}
	return repo, nil
}

func (r *mongoPostRepo) Append(ctx context.Context, p models.Post) (models.Persisted[models.Post], error) {
	p = prepare(p)
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return models.Persisted[models.Post]{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return models.Persist(p, p.ID, p.CreatedAt), nil
}

func (r *mongoPostRepo) List(ctx context.Context, offset, limit int) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Post{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return out, nil
}

func (r *mongoPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch post %s: %w", id, err)
	}
	return &p, nil
}

func (r *mongoPostRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
