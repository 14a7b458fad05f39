package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthpulse/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRow is the SQL shape of the directory; exported so seeders can insert users.
type UserRow struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	FCMToken  string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserRow) TableName() string { return "users" }

type gormUserRepo struct {
	db *gorm.DB
}

// NewGormUserRepo returns a UserRepository on a SQL database.
func NewGormUserRepo(db *gorm.DB) (UserRepository, error) {
	if err := db.AutoMigrate(&UserRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &gormUserRepo{db: db}, nil
}

func (r *gormUserRepo) ListRecipients(ctx context.Context, afterID string, limit int) ([]models.Recipient, error) {
	var rows []UserRow
	tx := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != "" {
		tx = tx.Where("id > ?", afterID)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	out := make([]models.Recipient, len(rows))
	for i, row := range rows {
		out[i] = models.Recipient{ID: row.ID, FCMToken: row.FCMToken}
	}
	return out, nil
}

func (r *gormUserRepo) GetRecipient(ctx context.Context, id string) (*models.Recipient, error) {
	var row UserRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &models.Recipient{ID: row.ID, FCMToken: row.FCMToken}, nil
}

func (r *gormUserRepo) UpsertFCMToken(ctx context.Context, id, token string) error {
	row := UserRow{ID: id, FCMToken: token}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fcm_token", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update fcm token for user %s: %w", id, err)
	}
	return nil
}
