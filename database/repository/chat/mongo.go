package chatRepo

import (
	"context"
	"fmt"
	"time"

	"healthpulse/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoChatRepo struct {
	coll *mongo.Collection
}

// NewMongoChatRepo returns a ChatRepository backed by MongoDB.
func NewMongoChatRepo(db *mongo.Database) (ChatRepository, error) {
	repo := &mongoChatRepo{coll: db.Collection("chat_messages")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat indexes: %w", err)
	}
	return repo, nil
}

func (r *mongoChatRepo) Append(ctx context.Context, msg models.ChatMessage) (models.Persisted[models.ChatMessage], error) {
	msg = prepare(msg)
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return models.Persisted[models.ChatMessage]{}, fmt.Errorf("failed to append chat message for %s: %w", msg.OwnerID, err)
	}
	return models.Persist(msg, msg.ID, msg.CreatedAt), nil
}

func (r *mongoChatRepo) History(ctx context.Context, ownerID string) ([]models.ChatMessage, error) {
	// ObjectIDs grow with insertion, which breaks createdAt ties in append order.
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history for %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	out := []models.ChatMessage{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}
	return out, nil
}

func (r *mongoChatRepo) Clear(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat history for %s: %w", ownerID, err)
	}
	return res.DeletedCount, nil
}
