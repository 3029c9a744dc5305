// Package config 从环境变量读取服务配置，本地开发可使用 .env
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv        string `envconfig:"APP_ENV" default:"dev"`
	Port          int    `envconfig:"PORT" default:"8080"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"newsroom:"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"secret_key_change_me"`
	SessionName   string `envconfig:"SESSION_NAME" default:"newsroom_session"`
	VisitorKey    string `envconfig:"VISITOR_KEY" default:"visitor_id"`

	Cache struct {
		LocalSize   int           `envconfig:"LOCAL_CACHE_SIZE" default:"500"`
		ArticlesTTL time.Duration `envconfig:"CACHE_ARTICLES_TTL" default:"1m"`
		StatsTTL    time.Duration `envconfig:"CACHE_STATS_TTL" default:"5m"`
		CommentsTTL time.Duration `envconfig:"CACHE_COMMENTS_TTL" default:"2m"`
	} `envconfig:""`
}

// IsDev 是否为开发环境
func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Addr 监听地址
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load 读取 .env（可选）与环境变量
func Load(files ...string) (Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load(files...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.Cache.LocalSize <= 0 {
		return Config{}, fmt.Errorf("load config: LOCAL_CACHE_SIZE must be positive, got %d", cfg.Cache.LocalSize)
	}
	return cfg, nil
}
