package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fablehouse/fable-api/internal/api/handlers"
	apimiddleware "github.com/fablehouse/fable-api/internal/api/middleware"
	"github.com/fablehouse/fable-api/internal/config"
	"github.com/fablehouse/fable-api/internal/services"
)

func SetupRouter(cfg *config.Config, storyService *services.StoryService, registry *services.SessionRegistry, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, registry)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// API routes v1. Story state is keyed by browser session; auth is either
	// disabled (self-hosted) or delegated to the cloud gateway.
	sessionStore := apimiddleware.NewSessionStore(cfg.SessionSecret)

	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.OptionalGatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	v1.Use(apimiddleware.Session(sessionStore))
	{
		storyHandler := handlers.NewStoryHandler(storyService, registry, cfg)
		v1.POST("/stories", storyHandler.Generate)
		v1.POST("/stories/mutations", storyHandler.Mutate)
		v1.GET("/stories/current", storyHandler.Current)
		v1.GET("/stories/events", storyHandler.Events)
	}

	return router
}
