package notificationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthpulse/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notificationRow is the SQL shape. Seq keeps insertion order stable when
// two rows share a timestamp.
type notificationRow struct {
	Seq       uint64     `gorm:"primaryKey;autoIncrement"`
	ID        string     `gorm:"type:varchar(36);uniqueIndex;not null"`
	OwnerID   string     `gorm:"type:varchar(64);index:idx_notifications_owner_created;uniqueIndex:ux_notifications_owner_run;not null"`
	Message   string     `gorm:"type:text;not null"`
	IsRead    bool       `gorm:"not null;index"`
	CreatedAt time.Time  `gorm:"index:idx_notifications_owner_created"`
	ReadAt    *time.Time
	// NULL for ordinary notifications so the unique pair only binds daily runs.
	RunID *string `gorm:"type:varchar(32);uniqueIndex:ux_notifications_owner_run"`
}

func (notificationRow) TableName() string { return "notifications" }

func toRow(n models.Notification) notificationRow {
	row := notificationRow{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
	if n.RunID != "" {
		runID := n.RunID
		row.RunID = &runID
	}
	return row
}

func (r notificationRow) toModel() models.Notification {
	n := models.Notification{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Message:   r.Message,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
		ReadAt:    r.ReadAt,
	}
	if r.RunID != nil {
		n.RunID = *r.RunID
	}
	return n
}

type gormNotificationRepo struct {
	db *gorm.DB
}

// NewGormNotificationRepo returns a NotificationRepository on a SQL database
// and migrates its table.
func NewGormNotificationRepo(db *gorm.DB) (NotificationRepository, error) {
	if err := db.AutoMigrate(&notificationRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notifications table: %w", err)
	}
	return &gormNotificationRepo{db: db}, nil
}

func scopeFilter(tx *gorm.DB, ownerID string, filter models.ReadFilter) *gorm.DB {
	tx = tx.Where("owner_id = ?", ownerID)
	switch filter {
	case models.FilterRead:
		tx = tx.Where("is_read = ?", true)
	case models.FilterUnread:
		tx = tx.Where("is_read = ?", false)
	}
	return tx
}

func (r *gormNotificationRepo) Append(ctx context.Context, n models.Notification) (models.Persisted[models.Notification], error) {
	n = prepare(n, "")
	row := toRow(n)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Persisted[models.Notification]{}, fmt.Errorf("failed to insert notification for %s: %w", n.OwnerID, err)
	}
	return models.Persist(n, n.ID, n.CreatedAt), nil
}

func (r *gormNotificationRepo) AppendForRun(ctx context.Context, n models.Notification, runID string) (models.Persisted[models.Notification], error) {
	if runID == "" {
		return models.Persisted[models.Notification]{}, errors.New("AppendForRun: empty run id")
	}
	n = prepare(n, runID)
	row := toRow(n)
	// Idempotent per (owner, run): a repeat insert is skipped, not an error.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return models.Persisted[models.Notification]{}, fmt.Errorf("failed to insert run notification for %s: %w", n.OwnerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Persisted[models.Notification]{}, ErrDuplicateRun
	}
	return models.Persist(n, n.ID, n.CreatedAt), nil
}

func (r *gormNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var row notificationRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch notification %s: %w", id, err)
	}
	n := row.toModel()
	return &n, nil
}

func (r *gormNotificationRepo) ListFor(ctx context.Context, ownerID string, filter models.ReadFilter) ([]models.Notification, error) {
	var rows []notificationRow
	err := scopeFilter(r.db.WithContext(ctx), ownerID, filter).
		Order("created_at DESC").
		Order("seq DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", ownerID, err)
	}
	out := make([]models.Notification, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

func (r *gormNotificationRepo) CountUnread(ctx context.Context, ownerID string) (int64, error) {
	var cnt int64
	err := scopeFilter(r.db.WithContext(ctx).Model(&notificationRow{}), ownerID, models.FilterUnread).
		Count(&cnt).Error
	return cnt, err
}

func (r *gormNotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	readAt := at.UTC()
	res := r.db.WithContext(ctx).
		Model(&notificationRow{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": &readAt})
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *gormNotificationRepo) MarkAllRead(ctx context.Context, ownerID string, at time.Time) (int64, error) {
	readAt := at.UTC()
	res := scopeFilter(r.db.WithContext(ctx).Model(&notificationRow{}), ownerID, models.FilterUnread).
		Updates(map[string]any{"is_read": true, "read_at": &readAt})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read for %s: %w", ownerID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormNotificationRepo) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&notificationRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormNotificationRepo) DeleteMatching(ctx context.Context, ownerID string, filter models.ReadFilter) (int64, error) {
	res := scopeFilter(r.db.WithContext(ctx), ownerID, filter).Delete(&notificationRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete notifications for %s: %w", ownerID, res.Error)
	}
	return res.RowsAffected, nil
}
