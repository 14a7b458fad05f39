package chat

import (
	"context"
	"errors"
	"fmt"

	chatRepo "healthpulse/database/repository/chat"
	"healthpulse/models"
	"healthpulse/services/realtime"
	"healthpulse/utils"

	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("message text is required")

// ChatService is the assistant conversation surface.
type ChatService interface {
	// Send appends the user's message, produces and persists the assistant
	// reply, then broadcasts it.
	Send(ctx context.Context, ownerID, text string) (*SendResult, error)
	History(ctx context.Context, ownerID string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, ownerID string) (int64, error)
}

// Replier produces the assistant's answer to text given prior history.
type Replier interface {
	Reply(ctx context.Context, history []models.ChatMessage, text string) (string, error)
}

// Broadcaster publishes persisted replies on the global channel.
type Broadcaster interface {
	BroadcastChatReply(ctx context.Context, m models.Persisted[models.ChatMessage]) (realtime.BroadcastReport, error)
}

type SendResult struct {
	UserMessage models.ChatMessage `json:"userMessage"`
	Reply       models.ChatMessage `json:"reply"`
}

// DefaultChatService is the production implementation.
type DefaultChatService struct {
	repo        chatRepo.ChatRepository
	replier     Replier
	fallback    Replier
	broadcaster Broadcaster
	locks       *utils.KeyedMutex
	logger      *zap.Logger
}

func NewDefaultChatService(
	repo chatRepo.ChatRepository,
	replier Replier,
	broadcaster Broadcaster,
	logger *zap.Logger,
) (*DefaultChatService, error) {
	if repo == nil || broadcaster == nil {
		return nil, fmt.Errorf("chat service initialization error: repository or broadcaster is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := NewCannedReplier(nil)
	if replier == nil {
		replier = fallback
	}
	return &DefaultChatService{
		repo:        repo,
		replier:     replier,
		fallback:    fallback,
		broadcaster: broadcaster,
		locks:       utils.NewKeyedMutex(),
		logger:      logger,
	}, nil
}
