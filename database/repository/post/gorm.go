package postRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthpulse/models"

	"gorm.io/gorm"
)

type postRow struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	AuthorID  string    `gorm:"type:varchar(64);index;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (postRow) TableName() string { return "posts" }

func (r postRow) toModel() models.Post {
	return models.Post{ID: r.ID, AuthorID: r.AuthorID, Content: r.Content, CreatedAt: r.CreatedAt}
}

type gormPostRepo struct {
	db *gorm.DB
}

// NewGormPostRepo returns a PostRepository on a SQL database.
func NewGormPostRepo(db *gorm.DB) (PostRepository, error) {
	if err := db.AutoMigrate(&postRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate posts table: %w", err)
	}
	return &gormPostRepo{db: db}, nil
}

func (r *gormPostRepo) Append(ctx context.Context, p models.Post) (models.Persisted[models.Post], error) {
	p = prepare(p)
	row := postRow{ID: p.ID, AuthorID: p.AuthorID, Content: p.Content, CreatedAt: p.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Persisted[models.Post]{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return models.Persist(p, p.ID, p.CreatedAt), nil
}

func (r *gormPostRepo) List(ctx context.Context, offset, limit int) ([]models.Post, error) {
	var rows []postRow
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("seq DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	out := make([]models.Post, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

func (r *gormPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var row postRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch post %s: %w", id, err)
	}
	p := row.toModel()
	return &p, nil
}

func (r *gormPostRepo) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&postRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete post %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
