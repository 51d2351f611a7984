package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVAPIDPublicKey returns the key browsers need to subscribe to seat change notices.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" || h.webpush.VAPIDPrivateKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "seat change notifications are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"public_key": h.webpush.VAPIDPublicKey,
		"ttl":        h.webpush.TTL,
	})
}
