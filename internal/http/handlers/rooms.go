package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"puzzle_sync/internal/session"
)

// CreateRoom mints a fresh room id and its shareable locator. The room
// channel itself materializes lazily on first subscribe.
func (h *Handler) CreateRoom(c *gin.Context) {
	roomID := session.NewRoomID()
	base := c.Request.Header.Get("Origin")
	if base == "" {
		base = "http://" + c.Request.Host
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id": roomID,
		"url":     session.RoomURL(base, roomID),
	})
}

// ClaimHost is the relay-side assist for host election: the first
// caller per room gets host=true. Backed by Redis SETNX when
// configured so claims hold across relay instances; otherwise a
// per-process map. Still a heuristic, not consensus — clients keep
// their own local marker and the timestamp rule settles any tie.
func (h *Handler) ClaimHost(c *gin.Context) {
	roomID := c.Param("id")
	who := c.Query("who")

	if h.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ok, err := h.Redis.SetNX(ctx, "host:"+roomID, who, 24*time.Hour).Result()
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"host": ok})
			return
		}
		// fall through to the local map on Redis trouble
	}

	h.claimMu.Lock()
	_, taken := h.localClaims[roomID]
	if !taken {
		h.localClaims[roomID] = who
	}
	h.claimMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"host": !taken})
}
