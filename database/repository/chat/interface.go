package chatRepo

import (
	"context"
	"time"

	"healthpulse/models"

	"github.com/google/uuid"
)

// ChatRepository is the append-only per-owner conversation log.
type ChatRepository interface {
	Append(ctx context.Context, msg models.ChatMessage) (models.Persisted[models.ChatMessage], error)
	// History returns the owner's messages in creation order.
	History(ctx context.Context, ownerID string) ([]models.ChatMessage, error)
	// Clear drops the owner's whole conversation.
	Clear(ctx context.Context, ownerID string) (int64, error)
}

func prepare(msg models.ChatMessage) models.ChatMessage {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()
	return msg
}
