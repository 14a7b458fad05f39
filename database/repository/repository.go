package repository

import (
	"fmt"

	chatRepo "healthpulse/database/repository/chat"
	notificationRepo "healthpulse/database/repository/notification"
	postRepo "healthpulse/database/repository/post"
	userRepo "healthpulse/database/repository/user"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Re-export the store interfaces.
type (
	NotificationRepository = notificationRepo.NotificationRepository
	ChatRepository         = chatRepo.ChatRepository
	PostRepository         = postRepo.PostRepository
	UserRepository         = userRepo.UserRepository
)

// Stores groups every repository the engine needs.
type Stores struct {
	Notifications NotificationRepository
	Chat          ChatRepository
	Posts         PostRepository
	Users         UserRepository
}

// NewMongoStores builds all stores on one Mongo database.
func NewMongoStores(db *mongo.Database) (*Stores, error) {
	notifications, err := notificationRepo.NewMongoNotificationRepo(db)
	if err != nil {
		return nil, err
	}
	chat, err := chatRepo.NewMongoChatRepo(db)
	if err != nil {
		return nil, err
	}
	posts, err := postRepo.NewMongoPostRepo(db)
	if err != nil {
		return nil, err
	}
	users, err := userRepo.NewMongoUserRepo(db)
	if err != nil {
		return nil, err
	}
	return &Stores{Notifications: notifications, Chat: chat, Posts: posts, Users: users}, nil
}

// NewGormStores builds all stores on one SQL database, migrating tables.
func NewGormStores(db *gorm.DB) (*Stores, error) {
	notifications, err := notificationRepo.NewGormNotificationRepo(db)
	if err != nil {
		return nil, err
	}
	chat, err := chatRepo.NewGormChatRepo(db)
	if err != nil {
		return nil, err
	}
	posts, err := postRepo.NewGormPostRepo(db)
	if err != nil {
		return nil, err
	}
	users, err := userRepo.NewGormUserRepo(db)
	if err != nil {
		return nil, fmt.Errorf("user store: %w", err)
	}
	return &Stores{Notifications: notifications, Chat: chat, Posts: posts, Users: users}, nil
}
