package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"delivery/internal/handler"
	"delivery/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OrderHandler    *handler.OrderHandler
	CourierHandler  *handler.CourierHandler
	DeliveryHandler *handler.DeliveryHandler
	PricingHandler  *handler.PricingHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.Create)
			orders.GET("/:id", deps.OrderHandler.Get)
		}

		// Courier routes.
		couriers := v1.Group("/couriers")
		{
			couriers.POST("/register", deps.CourierHandler.Register)
			couriers.GET("", deps.CourierHandler.GetAll)
			couriers.POST("/:id/location", deps.CourierHandler.UpdateLocation)
			couriers.POST("/:id/status", deps.CourierHandler.SetStatus)
		}

		// Delivery routes.
		deliveries := v1.Group("/deliveries")
		{
			deliveries.POST("", deps.DeliveryHandler.Create)
			deliveries.GET("", deps.DeliveryHandler.List)
			deliveries.GET("/pending", deps.DeliveryHandler.ListPending)
			deliveries.GET("/:id", deps.DeliveryHandler.Get)
			deliveries.POST("/:id/assign", deps.DeliveryHandler.Assign)
			deliveries.POST("/:id/auto-assign", deps.DeliveryHandler.AutoAssign)
			deliveries.POST("/:id/status", deps.DeliveryHandler.UpdateStatus)
			deliveries.POST("/:id/rate", deps.DeliveryHandler.Rate)
		}

		// Pricing routes.
		pricing := v1.Group("/pricing")
		{
			pricing.GET("/config", deps.PricingHandler.GetConfig)
			pricing.PUT("/config", deps.PricingHandler.ReplaceBaseConfig)
			pricing.POST("/time-ranges", deps.PricingHandler.AddTimeRange)
			pricing.DELETE("/time-ranges/:id", deps.PricingHandler.RemoveTimeRange)
			pricing.POST("/distance-ranges", deps.PricingHandler.AddDistanceRange)
			pricing.DELETE("/distance-ranges/:id", deps.PricingHandler.RemoveDistanceRange)
			pricing.GET("/quote", deps.PricingHandler.Quote)
		}
	}

	return router
}
