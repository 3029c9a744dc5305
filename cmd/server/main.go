package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"newsroom/internal/articles"
	"newsroom/internal/cacheaside"
	"newsroom/internal/comments"
	"newsroom/internal/config"
	"newsroom/internal/db"
	"newsroom/internal/kvstore"
	"newsroom/internal/logger"
	"newsroom/internal/metrics"
	"newsroom/internal/middleware"
	"newsroom/internal/reactions"
	"newsroom/internal/router"
	"newsroom/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("prod").Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.AppEnv)

	dsn := cfg.DatabaseURL
	if dsn == "" {
		if !cfg.IsDev() {
			log.Fatal().Msg("DATABASE_URL is required outside dev")
		}
		dsn = "newsroom.db"
	}
	conn, err := db.Open(dsn, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if cfg.IsDev() {
		if err := db.SeedArticles(conn, log); err != nil {
			log.Error().Err(err).Msg("failed to seed articles")
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache, closeCache := openCache(cfg, log)
	defer closeCache()

	social := services.NewSocial(services.Deps{
		Articles: articles.NewStore(conn),
		Comments: comments.NewStore(comments.NewGormRepository(conn), log),
		Ledger:   reactions.NewLedger(reactions.NewGormRepository(conn), log, m),
		Cache:    cacheaside.New(log, cacheaside.WithMetrics(m)),
		Store:    cache,
		TTLs: services.TTLs{
			Articles: cfg.Cache.ArticlesTTL,
			Stats:    cfg.Cache.StatsTTL,
			Comments: cfg.Cache.CommentsTTL,
		},
		Log:     log,
		Metrics: m,
	})

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Setup Sessions，访客标识长期保存在 cookie 中
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   !cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.SessionName, store))
	r.Use(middleware.LoadVisitor(cfg.VisitorKey, log))

	router.RegisterRoutes(r, social, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("newsroom server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server exited")
}

// openCache REDIS_ADDR 为空时使用进程内 LRU
func openCache(cfg config.Config, log zerolog.Logger) (kvstore.Store, func()) {
	if cfg.RedisAddr == "" {
		mem, err := kvstore.NewMemory(cfg.Cache.LocalSize)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create local cache")
		}
		log.Info().Int("size", cfg.Cache.LocalSize).Msg("using in-process cache")
		return mem, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// 缓存不可用时依旧可以回源
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	return kvstore.NewRedis(client, cfg.RedisPrefix), func() { _ = client.Close() }
}
