package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"puzzle_sync/internal/config"
	"puzzle_sync/internal/db"
	httpServer "puzzle_sync/internal/http"
	"puzzle_sync/internal/http/middleware"
	"puzzle_sync/internal/imagestore"
	"puzzle_sync/internal/logger"
	"puzzle_sync/internal/relay"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	// optional backends: the relay runs fine without either
	var pool = connectDB(cfg)
	if pool != nil {
		defer pool.Close()
	}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	var blobs imagestore.Blobs
	if pool != nil {
		pg := imagestore.NewPG(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("image store schema", "error", err)
		}
		blobs = pg
	}
	images := imagestore.NewAdapter(blobs)

	bridge := relay.NewBridge(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	hub := relay.NewHub(bridge)
	hub.StartCleanup()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	httpServer.RegisterRoutes(r, cfg, hub, images, pool, rdb)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("relay started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down relay")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", "error", err)
	}
	logger.Info("relay exited")
}

func connectDB(cfg *config.Config) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("database unavailable, image store disabled", "error", err)
		return nil
	}
	return pool
}
