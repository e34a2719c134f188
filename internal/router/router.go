package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/api"
	"github.com/kentavrex/topfit/internal/middleware"
	"github.com/kentavrex/topfit/internal/types"
)

// Handlers are the route groups of the HTTP API. Webhook is nil when the
// bot long polls.
type Handlers struct {
	Health    *api.HealthHandler
	Webhook   *api.WebhookHandler
	Nutrition *api.NutritionHandler
	Admin     *api.AdminHandler
	// Limits is optional
	Limits *api.LimitsHandler
}

// Options configure cross-cutting middleware
type Options struct {
	Auth        middleware.TokenValidator
	AdminID     int64
	CORSOrigins []string
	// RateLimit applies to every authenticated route; nil disables it
	RateLimit *middleware.RateLimiter
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log.Named("http")))
	router.Use(middleware.ErrorHandler(log.Named("http")))

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found", Code: "not_found"})
	})

	h.Health.RegisterRoutes(router)
	if h.Webhook != nil {
		h.Webhook.RegisterRoutes(router)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	protected := v1.Group("", middleware.AuthMiddleware(opts.Auth), opts.RateLimit.RateLimitMiddleware())
	h.Nutrition.RegisterRoutes(protected)
	if h.Limits != nil {
		h.Limits.RegisterRoutes(protected)
	}

	admin := protected.Group("", middleware.AdminOnly(opts.AdminID))
	h.Admin.RegisterRoutes(admin)

	return router
}
