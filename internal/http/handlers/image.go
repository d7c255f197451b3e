package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"puzzle_sync/internal/imagestore"
)

const maxImageBytes = 8 << 20

// UploadImage accepts raw image bytes and returns the opaque reference
// clients broadcast in image events. Upload never fails outright: when
// the blob store is down the adapter answers with the self-contained
// inline encoding.
func (h *Handler) UploadImage(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}
	if len(data) > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	ref := h.Images.Upload(c.Request.Context(), data, c.ContentType())
	c.JSON(http.StatusOK, gin.H{"ref": ref})
}

// GetImage resolves a stored reference back to bytes.
func (h *Handler) GetImage(c *gin.Context) {
	ref := "img:" + c.Param("id")
	data, contentType, err := h.Images.Resolve(c.Request.Context(), ref)
	if errors.Is(err, imagestore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such image"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image fetch failed"})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
