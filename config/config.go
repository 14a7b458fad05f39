package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminAPIKey       string `mapstructure:"ADMIN_API_KEY"`

	// Storage. STORE_DRIVER is one of mongo, sqlite, postgres.
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	SQLDSN       string `mapstructure:"SQL_DSN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Push and AI collaborators.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	GeminiAPIKey            string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel             string `mapstructure:"GEMINI_MODEL"`

	// Daily broadcast.
	DailyBroadcastSpec string        `mapstructure:"DAILY_BROADCAST_SPEC"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	DailyMessages      []string      `mapstructure:"DAILY_MESSAGES"`
	FanoutWorkers      int           `mapstructure:"FANOUT_WORKERS"`
	FanoutPageSize     int           `mapstructure:"FANOUT_PAGE_SIZE"`
	FanoutUnitTimeout  time.Duration `mapstructure:"FANOUT_UNIT_TIMEOUT"`

	// Live delivery.
	PushTimeout          time.Duration `mapstructure:"PUSH_TIMEOUT"`
	BroadcastParallelism int           `mapstructure:"BROADCAST_PARALLELISM"`
}

var AppConfig Config

// DefaultDailyMessages is the catalog used when DAILY_MESSAGES is unset.
var DefaultDailyMessages = []string{
	"Hydrate today: aim for eight glasses of water.",
	"Take a ten minute walk after lunch.",
	"Log your meals today to keep your diet insights accurate.",
	"Stretch for five minutes before bed.",
	"Check in with how you feel and record any symptoms.",
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_API_KEY", "")
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "healthpulse")
	viper.SetDefault("SQL_DSN", "healthpulse.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")
	viper.SetDefault("DAILY_BROADCAST_SPEC", "0 9 * * *")
	viper.SetDefault("TIMEZONE", "Local")
	viper.SetDefault("DAILY_MESSAGES", DefaultDailyMessages)
	viper.SetDefault("FANOUT_WORKERS", 8)
	viper.SetDefault("FANOUT_PAGE_SIZE", 500)
	viper.SetDefault("FANOUT_UNIT_TIMEOUT", "10s")
	viper.SetDefault("PUSH_TIMEOUT", "2s")
	viper.SetDefault("BROADCAST_PARALLELISM", 32)
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves TIMEZONE, falling back to the process local zone.
func Location() *time.Location {
	tz := AppConfig.Timezone
	if tz == "" || tz == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("unknown TIMEZONE %q, using local time: %v", tz, err)
		return time.Local
	}
	return loc
}
