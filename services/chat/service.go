package chat

import (
	"context"
	"strings"

	"healthpulse/models"
	"healthpulse/services/notification"

	"go.uber.org/zap"
)

func (s *DefaultChatService) Send(ctx context.Context, ownerID, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if ownerID == "" || text == "" {
		return nil, ErrEmptyMessage
	}

	// One exchange at a time per owner keeps user/assistant pairs adjacent.
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	history, err := s.repo.History(ctx, ownerID)
	if err != nil {
		return nil, notification.NewPersistenceError("chat history", err)
	}

	userMsg, err := s.repo.Append(ctx, models.ChatMessage{OwnerID: ownerID, Sender: models.SenderUser, Text: text})
	if err != nil {
		return nil, notification.NewPersistenceError("chat append", err)
	}

	answer, err := s.replier.Reply(ctx, history, text)
	if err != nil || strings.TrimSpace(answer) == "" {
		s.logger.Warn("Replier failed, using fallback", zap.String("owner", ownerID), zap.Error(err))
		answer, _ = s.fallback.Reply(ctx, history, text)
	}

	reply, err := s.repo.Append(ctx, models.ChatMessage{OwnerID: ownerID, Sender: models.SenderAssistant, Text: answer})
	if err != nil {
		return nil, notification.NewPersistenceError("chat append reply", err)
	}

	if _, err := s.broadcaster.BroadcastChatReply(ctx, reply); err != nil {
		s.logger.Error("Chat reply broadcast rejected", zap.String("message", reply.ID()), zap.Error(err))
	}

	return &SendResult{UserMessage: userMsg.Record(), Reply: reply.Record()}, nil
}

func (s *DefaultChatService) History(ctx context.Context, ownerID string) ([]models.ChatMessage, error) {
	history, err := s.repo.History(ctx, ownerID)
	if err != nil {
		return nil, notification.NewPersistenceError("chat history", err)
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	return history, nil
}

func (s *DefaultChatService) Clear(ctx context.Context, ownerID string) (int64, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	n, err := s.repo.Clear(ctx, ownerID)
	if err != nil {
		return 0, notification.NewPersistenceError("chat clear", err)
	}
	return n, nil
}
