package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"puzzle_sync/internal/config"
	"puzzle_sync/internal/http/handlers"
	"puzzle_sync/internal/http/middleware"
	"puzzle_sync/internal/imagestore"
	"puzzle_sync/internal/relay"
)

// RegisterRoutes wires the relay surface: health, room bootstrap,
// image upload/fetch and the websocket channel endpoint.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, hub *relay.Hub, images *imagestore.Adapter, db *pgxpool.Pool, rdb *redis.Client) {
	h := handlers.New(hub, images, db, rdb, cfg.AllowedOrigin)

	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	{
		v1.POST("/rooms", h.CreateRoom)
		v1.POST("/rooms/:id/claim", h.ClaimHost)
		v1.POST("/images", h.UploadImage)
		v1.GET("/images/:id", h.GetImage)
	}

	r.GET("/ws", h.WS())
}
