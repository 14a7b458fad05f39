package community

import (
	"context"
	"errors"
	"fmt"
	"strings"

	postRepo "healthpulse/database/repository/post"
	"healthpulse/models"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrForbidden    = errors.New("only the author can delete a post")
	ErrEmptyContent = errors.New("post content is required")
)

const maxPageSize = 100

// CommunityService manages the public post feed.
type CommunityService interface {
	Create(ctx context.Context, authorID, content string) (models.Post, error)
	List(ctx context.Context, page, pageSize int) ([]models.Post, error)
	Delete(ctx context.Context, requesterID, id string) error
	// BroadcastEvent stores p and then announces it on the global channel.
	// It returns once the store write succeeded, whatever the live outcome.
	BroadcastEvent(ctx context.Context, p models.Post) (models.Post, error)
}

// Broadcaster is the global channel the service publishes on. It only takes
// records a store has already written.
type Broadcaster interface {
	BroadcastPost(ctx context.Context, p models.Persisted[models.Post]) (realtime.BroadcastReport, error)
}

type DefaultCommunityService struct {
	repo        postRepo.PostRepository
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewDefaultCommunityService(repo postRepo.PostRepository, broadcaster Broadcaster, logger *zap.Logger) (*DefaultCommunityService, error) {
	if repo == nil || broadcaster == nil {
		return nil, fmt.Errorf("community service initialization error: repository or broadcaster is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultCommunityService{repo: repo, broadcaster: broadcaster, logger: logger}, nil
}

// Create persists the post, then announces it to everyone connected.
func (s *DefaultCommunityService) Create(ctx context.Context, authorID, content string) (models.Post, error) {
	return s.BroadcastEvent(ctx, models.Post{AuthorID: authorID, Content: content})
}

// List pages newest first; page is 1-based.
func (s *DefaultCommunityService) List(ctx context.Context, page, pageSize int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	posts, err := s.repo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, notification.NewPersistenceError("post list", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func (s *DefaultCommunityService) Delete(ctx context.Context, requesterID, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postRepo.ErrNotFound) {
			return ErrNotFound
		}
		return notification.NewPersistenceError("post get", err)
	}
	if p.AuthorID != requesterID {
		return ErrForbidden
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, postRepo.ErrNotFound) {
			return ErrNotFound
		}
		return notification.NewPersistenceError("post delete", err)
	}
	return nil
}

func (s *DefaultCommunityService) BroadcastEvent(ctx context.Context, p models.Post) (models.Post, error) {
	p.Content = strings.TrimSpace(p.Content)
	if p.AuthorID == "" || p.Content == "" {
		return models.Post{}, ErrEmptyContent
	}

	stored, err := s.repo.Append(ctx, models.Post{AuthorID: p.AuthorID, Content: p.Content})
	if err != nil {
		return models.Post{}, notification.NewPersistenceError("post append", err)
	}

	report, err := s.broadcaster.BroadcastPost(ctx, stored)
	if err != nil {
		s.logger.Error("Post broadcast rejected", zap.String("post", stored.ID()), zap.Error(err))
	} else {
		s.logger.Debug("Post broadcast",
			zap.String("post", stored.ID()),
			zap.Int("delivered", report.Delivered),
			zap.Int("failed", report.Failed))
	}
	return stored.Record(), nil
}
