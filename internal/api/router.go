package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vishnu-krishna/pump-master/config"
	"github.com/vishnu-krishna/pump-master/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, h *Handler) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	rateLimit := float64(10)
	if cfg.RateLimitPerSec > 0 {
		rateLimit = cfg.RateLimitPerSec
	}
	rateLimiter := mw.RateLimiter(rate.Limit(rateLimit), 5, cfg.RequestIPHeader)

	caching := func(c *gin.Context) { c.Next() }
	if h.cache != nil {
		caching = h.cache.Middleware()
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Login)
			auth.POST("/logout", mw.RequireAuth(h.sessions), h.Logout)
			auth.GET("/me", mw.RequireAuth(h.sessions), h.Me)
		}

		pumps := api.Group("/pumps")
		pumps.Use(mw.RequireAuth(h.sessions))
		{
			pumps.GET("", caching, h.ListPumps)
			pumps.GET("/statistics", caching, h.GetStatistics)
			pumps.GET("/export", h.ExportPumps)
			pumps.GET("/area/:area", caching, h.GetPumpsByArea)
			pumps.GET("/:id", caching, h.GetPump)
			pumps.GET("/:id/pressure-history", caching, h.GetPressureHistory)
			pumps.POST("", h.CreatePump)
			pumps.POST("/reset", h.ResetPumps)
			pumps.PUT("/:id", h.UpdatePump)
			pumps.PATCH("/:id/status", h.SetPumpStatus)
			pumps.DELETE("/:id", h.DeletePump)
		}

		if h.subs != nil {
			api.GET("/subscriptions", mw.RequireAuth(h.sessions), h.GetSubscription)
			api.PUT("/subscriptions", mw.RequireAuth(h.sessions), h.PutSubscription)
			api.DELETE("/subscriptions", mw.RequireAuth(h.sessions), h.DeleteSubscription)
			api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
		}
	}

	return r
}

// NewResponseCache builds the GET cache from server config, or returns nil
// when caching is disabled.
func NewResponseCache(cfg *config.ServerConfig) *mw.ResponseCache {
	if cfg.CacheTTLSeconds <= 0 {
		return nil
	}
	return mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
}
