package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	MongoURL string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"yt_orchestrator"`
	RedisURL string `envconfig:"REDIS_URL" default:""`

	// YouTube Data API. The key is used for public-data calls (search,
	// channels.list, videos.list) when no per-user token is supplied.
	YouTubeAPIKey  string        `envconfig:"YOUTUBE_API_KEY" default:""`
	YouTubeBaseURL string        `envconfig:"YOUTUBE_BASE_URL" default:"https://www.googleapis.com/youtube/v3"`
	CallTimeout    time.Duration `envconfig:"YOUTUBE_CALL_TIMEOUT" default:"10s"`

	// Quota accounting. The Data API default budget is 10000 units per day.
	QuotaBudget int           `envconfig:"QUOTA_BUDGET" default:"10000"`
	QuotaWindow time.Duration `envconfig:"QUOTA_WINDOW" default:"24h"`

	// Refresh policy. MaxAge is how old a cached latest-video entry may get
	// before a refresh is attempted.
	RefreshMaxAge        time.Duration `envconfig:"REFRESH_MAX_AGE" default:"1h"`
	RefreshMaxConcurrent int           `envconfig:"REFRESH_MAX_CONCURRENT" default:"3"`

	// Background refresh worker. A zero interval disables the worker.
	WorkerInterval time.Duration `envconfig:"REFRESH_WORKER_INTERVAL" default:"0"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
