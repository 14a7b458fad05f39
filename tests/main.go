// Seeds the user directory with synthetic users so the daily fan-out and
// realtime endpoints can be exercised locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"healthpulse/config"
	"healthpulse/database"
	"healthpulse/database/repository"
	"healthpulse/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	count := flag.Int("users", 50, "number of users to seed")
	prefix := flag.String("prefix", "user", "id prefix for seeded users")
	flag.Parse()

	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()
	cfg := config.AppConfig

	var (
		stores *repository.Stores
		sqlDB  *gorm.DB
		err    error
	)
	switch cfg.StoreDriver {
	case "sqlite", "postgres":
		sqlDB, err = database.OpenSQL(cfg.StoreDriver, cfg.SQLDSN)
		if err != nil {
			logger.Fatal("seed: failed to open SQL store", zap.Error(err))
		}
		stores, err = repository.NewGormStores(sqlDB)
	default:
		if err := database.InitDB(logger); err != nil {
			logger.Fatal("seed: failed to connect to MongoDB", zap.Error(err))
		}
		stores, err = repository.NewMongoStores(database.MongoDatabase())
	}
	if err != nil {
		logger.Fatal("seed: failed to initialize stores", zap.Error(err))
	}
	defer func() { _ = database.Close(context.Background(), sqlDB) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Zero-padded ids keep keyset paging order equal to creation order.
	for i := 1; i <= *count; i++ {
		id := fmt.Sprintf("%s-%05d", *prefix, i)
		if err := stores.Users.UpsertFCMToken(ctx, id, ""); err != nil {
			logger.Fatal("seed: failed to insert user", zap.String("userID", id), zap.Error(err))
		}
	}
	logger.Info("seed: users inserted", zap.Int("count", *count), zap.String("driver", cfg.StoreDriver))
}
