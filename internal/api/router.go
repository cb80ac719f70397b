package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"gatehouse-backend/config"
	"gatehouse-backend/internal/ledger"
	"gatehouse-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *ledger.Service, cfg *config.ServerConfig, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
		r.Use(cors.New(corsCfg))
	}

	db := svc.DB()
	handler := NewHandler(svc, webpushOptions)

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Occupant lifecycle
		api.POST("/occupants/sign-in", handler.SignIn)
		api.POST("/occupants/:id/sign-out", handler.SignOut)
		api.GET("/occupants", GetOccupants(db))

		// Vehicle lifecycle
		api.POST("/vehicles", handler.CreateVehicle)
		api.GET("/vehicles", caching, GetVehicles(db))
		api.POST("/vehicles/:registration/checkout", handler.Checkout)
		api.POST("/vehicles/:registration/checkin", handler.CheckIn)
		api.POST("/vehicles/:registration/maintenance", handler.StartMaintenance)
		api.DELETE("/vehicles/:registration/maintenance", handler.EndMaintenance)
		api.POST("/checkins/:id/damage", handler.ReportDamage)

		// Availability notifications
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
