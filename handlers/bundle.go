package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Realtime transports
	WebSocketHandler gin.HandlerFunc
	StreamHandler    gin.HandlerFunc

	// Notification endpoints
	ListNotificationsHandler  gin.HandlerFunc
	UnreadCountHandler        gin.HandlerFunc
	MarkReadHandler           gin.HandlerFunc
	MarkAllReadHandler        gin.HandlerFunc
	MarkUnreadHandler         gin.HandlerFunc
	DeleteNotificationHandler gin.HandlerFunc
	DeleteMatchingHandler     gin.HandlerFunc
	CreateReminderHandler     gin.HandlerFunc

	// Chat endpoints
	SendChatMessageHandler gin.HandlerFunc
	ChatHistoryHandler     gin.HandlerFunc
	ClearChatHandler       gin.HandlerFunc

	// Community endpoints
	CreatePostHandler gin.HandlerFunc
	ListPostsHandler  gin.HandlerFunc
	DeletePostHandler gin.HandlerFunc

	// Device endpoints
	UpdateFCMTokenHandler gin.HandlerFunc

	// Admin endpoints
	RunDailyBroadcastHandler gin.HandlerFunc
	LastDailyReportHandler   gin.HandlerFunc
}
