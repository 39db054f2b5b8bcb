package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fablehouse/fable-api/internal/api"
	"github.com/fablehouse/fable-api/internal/config"
	"github.com/fablehouse/fable-api/internal/llm"
	"github.com/fablehouse/fable-api/internal/metrics"
	"github.com/fablehouse/fable-api/internal/observability"
	"github.com/fablehouse/fable-api/internal/prompt"
	"github.com/fablehouse/fable-api/internal/services"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "fable-api@" + releaseVersion,               // Use embedded release version
			EnableTracing:    true,                                        // Enable tracing for spans
			TracesSampleRate: 1.0,                                         // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                        // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction,    // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	// Initialize Langfuse observability
	observability.InitializeLangfuse(ctx, cfg)

	// Initialize CloudWatch metrics (no-op outside production)
	if cw, err := metrics.NewClient(ctx, cfg.Environment); err == nil {
		metrics.SetDefault(cw)
	} else {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}

	// Wire the generation pipeline
	providers := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	builder := prompt.NewPromptBuilder()

	imageProvider, err := providers.GetImageProvider(ctx, cfg.ImageModel)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize image provider:", err)
	}

	illustrator := services.NewIllustrator(imageProvider, builder, cfg.ImageModel, cfg.ImageAspectRatio)
	storyService := services.NewStoryService(providers, builder, illustrator, cfg.StoryModel)

	registry, err := services.NewSessionRegistry(cfg.SessionCacheSize)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize session registry:", err)
	}

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, storyService, registry, GetVersion())

	// Start server
	log.Printf("🚀 Starting server on port %s (story model: %s, image model: %s)",
		cfg.Port, cfg.StoryModel, cfg.ImageModel)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
