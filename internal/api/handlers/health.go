package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablehouse/fable-api/internal/config"
)

// HealthHandler reports process health and which backends are configured
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"providers": gin.H{
			"gemini": h.cfg.GeminiAPIKey != "",
			"openai": h.cfg.OpenAIAPIKey != "",
		},
		"models": gin.H{
			"story": h.cfg.StoryModel,
			"image": h.cfg.ImageModel,
		},
	})
}
