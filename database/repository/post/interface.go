package postRepo

import (
	"context"
	"errors"
	"time"

	"healthpulse/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("post not found")

// PostRepository stores community posts.
type PostRepository interface {
	Append(ctx context.Context, p models.Post) (models.Persisted[models.Post], error)
	// List returns posts newest first.
	List(ctx context.Context, offset, limit int) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	DeleteByID(ctx context.Context, id string) error
}

func prepare(p models.Post) models.Post {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	return p
}
