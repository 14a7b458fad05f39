package models

import "time"

// Notification is a per-user record. Message and OwnerID never change after
// creation; IsRead only moves from false to true.
type Notification struct {
	ID        string     `bson:"id" json:"id"`
	OwnerID   string     `bson:"ownerId" json:"ownerId"`
	Message   string     `bson:"message" json:"message"`
	IsRead    bool       `bson:"isRead" json:"isRead"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	// RunID is set only for notifications written by the daily broadcast.
	RunID string `bson:"runId,omitempty" json:"runId,omitempty"`
}

// ReminderPayload is the asynq task body for a scheduled single-user reminder.
type ReminderPayload struct {
	ReminderID string `json:"reminderId"`
	OwnerID    string `json:"ownerId"`
	Message    string `json:"message"`
	FireDate   string `json:"fireDate"`
}
