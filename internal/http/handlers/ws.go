package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"puzzle_sync/internal/logger"
	"puzzle_sync/internal/relay"
)

// WS upgrades the connection and subscribes it to the requested room
// channel. The relay does not authenticate participants; anyone with
// the room locator is in.
func (h *Handler) WS() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("room")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if h.AllowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == h.AllowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		room := h.Hub.GetOrCreate(roomID)
		client := relay.NewClient(uuid.NewString(), conn, room)
		room.Register <- client
		go client.Run()
	}
}
