package handlers

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"puzzle_sync/internal/imagestore"
	"puzzle_sync/internal/relay"
)

// Handler bundles what the HTTP surface needs: the relay hub, the
// image adapter and the optional backends health checks ping.
type Handler struct {
	Hub    *relay.Hub
	Images *imagestore.Adapter

	DB    *pgxpool.Pool // nil without DATABASE_URL
	Redis *redis.Client // nil without REDIS_ADDR

	AllowedOrigin string

	// room host claims when no Redis is around; per-process only,
	// which matches the heuristic's local, non-authoritative nature
	claimMu     sync.Mutex
	localClaims map[string]string
}

func New(hub *relay.Hub, images *imagestore.Adapter, db *pgxpool.Pool, rdb *redis.Client, allowedOrigin string) *Handler {
	return &Handler{
		Hub:           hub,
		Images:        images,
		DB:            db,
		Redis:         rdb,
		AllowedOrigin: allowedOrigin,
		localClaims:   make(map[string]string),
	}
}
