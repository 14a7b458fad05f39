package notificationRepo

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

type mongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo returns a NotificationRepository backed by MongoDB.
func NewMongoNotificationRepo(db *mongo.Database) (NotificationRepository, error) {
	repo := &mongoNotificationRepo{coll: db.Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *mongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "runId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"runId": bson.M{"$exists": true}}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func readFilterBSON(ownerID string, filter models.ReadFilter) bson.M {
	q := bson.M{"ownerId": ownerID}
	switch filter {
	case models.FilterRead:
		q["isRead"] = true
	case models.FilterUnread:
		q["isRead"] = false
	}
	return q
}

func (r *mongoNotificationRepo) insert(ctx context.Context, n models.Notification) (models.Persisted[models.Notification], error) {
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		if n.RunID != "" && mongo.IsDuplicateKeyError(err) {
			return models.Persisted[models.Notification]{}, ErrDuplicateRun
		}
		return models.Persisted[models.Notification]{}, fmt.Errorf("failed to insert notification for %s: %w", n.OwnerID, err)
	}
	return models.Persist(n, n.ID, n.CreatedAt), nil
}

func (r *mongoNotificationRepo) Append(ctx context.Context, n models.Notification) (models.Persisted[models.Notification], error) {
	return r.insert(ctx, prepare(n, ""))
}

func (r *mongoNotificationRepo) AppendForRun(ctx context.Context, n models.Notification, runID string) (models.Persisted[models.Notification], error) {
	if runID == "" {
		return models.Persisted[models.Notification]{}, errors.New("AppendForRun: empty run id")
	}
	return r.insert(ctx, prepare(n, runID))
}

func (r *mongoNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch notification %s: %w", id, err)
	}
	return &n, nil
}

func (r *mongoNotificationRepo) ListFor(ctx context.Context, ownerID string, filter models.ReadFilter) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, readFilterBSON(ownerID, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, nil
}

func (r *mongoNotificationRepo) CountUnread(ctx context.Context, ownerID string) (int64, error) {
	return r.coll.CountDocuments(ctx, readFilterBSON(ownerID, models.FilterUnread))
}

func (r *mongoNotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	if res.MatchedCount == 0 {
		// Either already read or missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoNotificationRepo) MarkAllRead(ctx context.Context, ownerID string, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		readFilterBSON(ownerID, models.FilterUnread),
		bson.M{"$set": bson.M{"isRead": true, "readAt": at.UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for %s: %w", ownerID, err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepo) DeleteMatching(ctx context.Context, ownerID string, filter models.ReadFilter) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, readFilterBSON(ownerID, filter))
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications for %s: %w", ownerID, err)
	}
	return res.DeletedCount, nil
}
