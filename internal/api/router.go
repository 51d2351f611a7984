package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"spot-attendance-backend/config"
	"spot-attendance-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	handler.cache = cacheStore
	caching := mw.Cache(cacheStore, ttl, scheduleKey)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		sections := api.Group("/sections/:section_id")
		sections.PUT("", handler.PutSection)
		sections.PUT("/enrollments/:student_id", handler.PutEnrollment)
		sections.GET("/schedule", caching, handler.GetSchedule)
		sections.GET("/window", handler.GetWindow)
		sections.POST("/checkins", handler.PostCheckin)
		sections.GET("/seats", handler.GetSeatPlan)
		sections.PUT("/seats", handler.PutSeat)
		sections.PUT("/seats/override", handler.PutSeatOverride)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
