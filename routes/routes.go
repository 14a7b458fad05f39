package routes

import (
	"time"

	"healthpulse/handlers"
	"healthpulse/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRealtimeRoutes registers the push transports.
func RegisterRealtimeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/ws", middleware.JWTAuthUserMiddleware(), hb.WebSocketHandler)
	r.GET("/api/events/stream", middleware.JWTAuthUserMiddleware(), hb.StreamHandler)
}

// RegisterNotificationRoutes registers the notification pull endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("", hb.ListNotificationsHandler)
		api.GET("/unread-count", hb.UnreadCountHandler)
		api.PATCH("/read-all", hb.MarkAllReadHandler)
		api.PATCH("/:id/read", hb.MarkReadHandler)
		api.PATCH("/:id/unread", hb.MarkUnreadHandler)
		api.DELETE("/:id", hb.DeleteNotificationHandler)
		api.DELETE("", hb.DeleteMatchingHandler)
		api.POST("/reminders", hb.CreateReminderHandler)
	}
}

// RegisterChatRoutes registers assistant chat endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("/history", hb.ChatHistoryHandler)
		api.DELETE("/history", hb.ClearChatHandler)
		api.POST("/messages", hb.SendChatMessageHandler)
	}
}

// RegisterPostRoutes registers community feed endpoints.
func RegisterPostRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/posts")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("", hb.ListPostsHandler)
		api.POST("", hb.CreatePostHandler)
		api.DELETE("/:id", hb.DeletePostHandler)
	}
}

// RegisterDeviceRoutes registers device token endpoints.
func RegisterDeviceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/devices")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.PUT("/fcm-token", hb.UpdateFCMTokenHandler)
	}
}

func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterAdminRoutes registers operator endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminKeyMiddleware())
		adminGroup.POST("/broadcast/daily", hb.RunDailyBroadcastHandler)
		adminGroup.GET("/broadcast/daily", hb.LastDailyReportHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRealtimeRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterChatRoutes(r, hb)
	RegisterPostRoutes(r, hb)
	RegisterDeviceRoutes(r, hb)
	RegisterHealthRoute(r)
	RegisterAdminRoutes(r, hb)
}
