package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthpulse/config"
	"healthpulse/cron"
	"healthpulse/database"
	"healthpulse/database/repository"
	"healthpulse/handlers"
	"healthpulse/middleware"
	"healthpulse/routes"
	"healthpulse/services/chat"
	"healthpulse/services/community"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"
	"healthpulse/services/scheduler"
	"healthpulse/services/tasks"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()
	cfg := config.AppConfig

	// Stores.
	var (
		stores    *repository.Stores
		sqlDB     *gorm.DB
		storePing func(context.Context) error
		err       error
	)
	switch cfg.StoreDriver {
	case "sqlite", "postgres":
		sqlDB, err = database.OpenSQL(cfg.StoreDriver, cfg.SQLDSN)
		if err != nil {
			logger.Fatal("main: failed to open SQL store", zap.Error(err))
		}
		stores, err = repository.NewGormStores(sqlDB)
		storePing = func(ctx context.Context) error {
			raw, err := sqlDB.DB()
			if err != nil {
				return err
			}
			return raw.PingContext(ctx)
		}
	default:
		if err := database.InitDB(logger); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		stores, err = repository.NewMongoStores(database.MongoDatabase())
		storePing = func(ctx context.Context) error {
			return database.MongoClient.Ping(ctx, nil)
		}
	}
	if err != nil {
		logger.Fatal("main: failed to initialize stores", zap.Error(err))
	}

	redisReady := true
	if err := utils.InitCache(); err != nil {
		redisReady = false
		logger.Warn("main: Redis unavailable, daily run lock disabled", zap.Error(err))
	}

	// Realtime core.
	registry := realtime.NewRegistry(64)
	dispatcher := realtime.NewDispatcher(registry, cfg.PushTimeout, logger)
	broadcaster := realtime.NewBroadcaster(registry, cfg.PushTimeout, cfg.BroadcastParallelism, logger)

	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := utils.FirebaseInit(context.Background())
		if err != nil {
			logger.Warn("main: FCM disabled", zap.Error(err))
		} else {
			dispatcher.SetOfflinePusher(notification.NewFCMPusher(stores.Users, fcm))
		}
	}

	// Services.
	notificationService, err := notification.NewDefaultNotificationService(stores.Notifications, dispatcher, logger)
	if err != nil {
		logger.Fatal("main: notification service", zap.Error(err))
	}

	var replier chat.Replier
	if cfg.GeminiAPIKey != "" {
		gemini, err := chat.NewGeminiReplier(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("main: Gemini disabled, using canned replies", zap.Error(err))
		} else {
			replier = gemini
			defer func() { _ = gemini.Close() }()
		}
	}
	chatService, err := chat.NewDefaultChatService(stores.Chat, replier, broadcaster, logger)
	if err != nil {
		logger.Fatal("main: chat service", zap.Error(err))
	}

	communityService, err := community.NewDefaultCommunityService(stores.Posts, broadcaster, logger)
	if err != nil {
		logger.Fatal("main: community service", zap.Error(err))
	}

	// Daily broadcast.
	messages := cfg.DailyMessages
	if len(messages) == 0 {
		messages = config.DefaultDailyMessages
	}
	selector, err := scheduler.NewCatalogSelector(messages, nil)
	if err != nil {
		logger.Fatal("main: daily message catalog", zap.Error(err))
	}
	loc := config.Location()
	daily := scheduler.NewDailyBroadcast(notificationService, stores.Users, scheduler.Options{
		Workers:     cfg.FanoutWorkers,
		PageSize:    cfg.FanoutPageSize,
		UnitTimeout: cfg.FanoutUnitTimeout,
		Location:    loc,
	}, logger)
	if redisReady {
		daily.SetRunLock(scheduler.NewRedisRunLock(utils.GetCacheClient()))
	}
	trigger, err := scheduler.NewCronTrigger(cfg.DailyBroadcastSpec, loc, daily, selector, logger)
	if err != nil {
		logger.Fatal("main: daily broadcast trigger", zap.Error(err))
	}
	trigger.Start()

	// Scheduled reminders.
	asynqClient := asynq.NewClient(cron.RedisOpt())
	reminderWorker := cron.NewReminderWorker(notificationService, logger)
	reminderWorker.Start()

	rootCtx, stopMonitor := context.WithCancel(context.Background())
	utils.StartHealthMonitor(rootCtx, 30*time.Second, utils.GetCacheClient(), storePing, registry.Len)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatService)
	postHandler := handlers.NewPostHandler(communityService)
	realtimeHandler := handlers.NewRealtimeHandler(registry)
	deviceHandler := handlers.NewDeviceHandler(stores.Users)
	reminderHandler := handlers.NewReminderHandler(tasks.NewReminderScheduler(asynqClient))
	adminHandler := handlers.NewAdminHandler(daily, selector)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		WebSocketHandler: realtimeHandler.WebSocketHandler,
		StreamHandler:    realtimeHandler.StreamHandler,

		ListNotificationsHandler:  notificationHandler.ListHandler,
		UnreadCountHandler:        notificationHandler.UnreadCountHandler,
		MarkReadHandler:           notificationHandler.MarkReadHandler,
		MarkAllReadHandler:        notificationHandler.MarkAllReadHandler,
		MarkUnreadHandler:         notificationHandler.MarkUnreadHandler,
		DeleteNotificationHandler: notificationHandler.DeleteHandler,
		DeleteMatchingHandler:     notificationHandler.DeleteMatchingHandler,
		CreateReminderHandler:     reminderHandler.CreateReminderHandler,

		SendChatMessageHandler: chatHandler.SendMessageHandler,
		ChatHistoryHandler:     chatHandler.HistoryHandler,
		ClearChatHandler:       chatHandler.ClearHistoryHandler,

		CreatePostHandler: postHandler.CreatePostHandler,
		ListPostsHandler:  postHandler.ListPostsHandler,
		DeletePostHandler: postHandler.DeletePostHandler,

		UpdateFCMTokenHandler: deviceHandler.UpdateFCMTokenHandler,

		RunDailyBroadcastHandler: adminHandler.RunDailyBroadcastHandler,
		LastDailyReportHandler:   adminHandler.LastDailyReportHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	for _, conn := range registry.All() {
		registry.Leave(conn)
		_ = conn.Close()
	}
	trigger.Stop(ctx)
	reminderWorker.Shutdown()
	_ = asynqClient.Close()
	stopMonitor()
	if err := database.Close(ctx, sqlDB); err != nil {
		logger.Error("main: failed to close store", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
