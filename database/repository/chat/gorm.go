package chatRepo

import (
	"context"
	"fmt"
	"time"

	"healthpulse/models"

	"gorm.io/gorm"
)

type chatRow struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	OwnerID   string    `gorm:"type:varchar(64);index:idx_chat_owner_seq;not null"`
	Sender    string    `gorm:"type:varchar(16);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (chatRow) TableName() string { return "chat_messages" }

type gormChatRepo struct {
	db *gorm.DB
}

// NewGormChatRepo returns a ChatRepository on a SQL database.
func NewGormChatRepo(db *gorm.DB) (ChatRepository, error) {
	if err := db.AutoMigrate(&chatRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate chat_messages table: %w", err)
	}
	return &gormChatRepo{db: db}, nil
}

func (r *gormChatRepo) Append(ctx context.Context, msg models.ChatMessage) (models.Persisted[models.ChatMessage], error) {
	msg = prepare(msg)
	row := chatRow{ID: msg.ID, OwnerID: msg.OwnerID, Sender: string(msg.Sender), Text: msg.Text, CreatedAt: msg.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Persisted[models.ChatMessage]{}, fmt.Errorf("failed to append chat message for %s: %w", msg.OwnerID, err)
	}
	return models.Persist(msg, msg.ID, msg.CreatedAt), nil
}

func (r *gormChatRepo) History(ctx context.Context, ownerID string) ([]models.ChatMessage, error) {
	var rows []chatRow
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load chat history for %s: %w", ownerID, err)
	}
	out := make([]models.ChatMessage, len(rows))
	for i, row := range rows {
		out[i] = models.ChatMessage{
			ID:        row.ID,
			OwnerID:   row.OwnerID,
			Sender:    models.Sender(row.Sender),
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}

func (r *gormChatRepo) Clear(ctx context.Context, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&chatRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear chat history for %s: %w", ownerID, res.Error)
	}
	return res.RowsAffected, nil
}
