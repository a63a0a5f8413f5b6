package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisFeedDB   int    `mapstructure:"REDIS_FEED_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Event bus: "asynq" enqueues durable tasks, "memory" uses an in-process channel.
	EventBackend string `mapstructure:"EVENT_BACKEND"`

	// Activity thresholds in posts per hour, and hours without posts before
	// the platform counts as dormant.
	ActivityHighPostsPerHour   float64 `mapstructure:"ACTIVITY_HIGH_POSTS_PER_HOUR"`
	ActivityMediumPostsPerHour float64 `mapstructure:"ACTIVITY_MEDIUM_POSTS_PER_HOUR"`
	ActivityLowPostsPerHour    float64 `mapstructure:"ACTIVITY_LOW_POSTS_PER_HOUR"`
	ActivityDormantHours       float64 `mapstructure:"ACTIVITY_DORMANT_HOURS"`
	ActivityMetricsTTLSeconds  int     `mapstructure:"ACTIVITY_METRICS_TTL_SECONDS"`

	// Cache lifetimes per activity level.
	TTLHighSeconds    int `mapstructure:"TTL_HIGH_SECONDS"`
	TTLMediumSeconds  int `mapstructure:"TTL_MEDIUM_SECONDS"`
	TTLLowSeconds     int `mapstructure:"TTL_LOW_SECONDS"`
	TTLDormantSeconds int `mapstructure:"TTL_DORMANT_SECONDS"`

	FollowingCacheTTLSeconds int `mapstructure:"FOLLOWING_CACHE_TTL_SECONDS"`
	ForYouFeedTTLSeconds     int `mapstructure:"FOR_YOU_FEED_TTL_SECONDS"`
	TrendingRefreshMinutes   int `mapstructure:"TRENDING_REFRESH_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "socialfeed")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_FEED_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("EVENT_BACKEND", "asynq")

	v.SetDefault("ACTIVITY_HIGH_POSTS_PER_HOUR", 100.0)
	v.SetDefault("ACTIVITY_MEDIUM_POSTS_PER_HOUR", 20.0)
	v.SetDefault("ACTIVITY_LOW_POSTS_PER_HOUR", 1.0)
	v.SetDefault("ACTIVITY_DORMANT_HOURS", 24.0)
	v.SetDefault("ACTIVITY_METRICS_TTL_SECONDS", 7*24*3600)

	v.SetDefault("TTL_HIGH_SECONDS", 60)
	v.SetDefault("TTL_MEDIUM_SECONDS", 300)
	v.SetDefault("TTL_LOW_SECONDS", 900)
	v.SetDefault("TTL_DORMANT_SECONDS", 3600)

	v.SetDefault("FOLLOWING_CACHE_TTL_SECONDS", 60)
	v.SetDefault("FOR_YOU_FEED_TTL_SECONDS", 3600)
	v.SetDefault("TRENDING_REFRESH_MINUTES", 15)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
