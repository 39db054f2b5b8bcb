package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fablehouse/fable-api/internal/api/middleware"
	"github.com/fablehouse/fable-api/internal/config"
	"github.com/fablehouse/fable-api/internal/encoding"
	"github.com/fablehouse/fable-api/internal/logger"
	"github.com/fablehouse/fable-api/internal/models"
	"github.com/fablehouse/fable-api/internal/services"
)

// StoryHandler exposes the story lifecycle: generate, mutate, read the live
// document, and stream its incremental illustration updates.
type StoryHandler struct {
	service  *services.StoryService
	registry *services.SessionRegistry
	cfg      *config.Config
}

func NewStoryHandler(service *services.StoryService, registry *services.SessionRegistry, cfg *config.Config) *StoryHandler {
	return &StoryHandler{
		service:  service,
		registry: registry,
		cfg:      cfg,
	}
}

// GenerateRequest is the JSON body for text-only generation requests
type GenerateRequest struct {
	Seed string `json:"seed" binding:"required"`
}

// MutationRequest is the JSON body for mutation requests
type MutationRequest struct {
	Directive string `json:"directive" binding:"required"`
}

// StoryResponse wraps the document handed back after a generation cycle
type StoryResponse struct {
	Epoch    uint64           `json:"epoch"`
	Document *models.Document `json:"document"`
}

// Generate creates a fresh story from a seed idea. The request is either
// JSON {"seed": ...} or multipart form data with a "seed" field and an
// optional "image" file used as inspiration.
func (h *StoryHandler) Generate(c *gin.Context) {
	seed, image, err := h.readGenerateInput(c)
	if err != nil {
		var ioErr *encoding.IOError
		if errors.As(err, &ioErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded image"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := h.registry.Store(middleware.GetSessionID(c))

	ctx, cancel := context.WithTimeout(c.Request.Context(), storyTimeoutSecs*time.Second)
	defer cancel()

	doc, epoch, err := h.service.Generate(ctx, store, seed, image)
	if err != nil {
		h.writeStoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, StoryResponse{Epoch: epoch, Document: doc})
}

// Mutate regenerates the session's story under a change directive. Requires
// a prior story in the session.
func (h *StoryHandler) Mutate(c *gin.Context) {
	var req MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := h.registry.Store(middleware.GetSessionID(c))

	ctx, cancel := context.WithTimeout(c.Request.Context(), storyTimeoutSecs*time.Second)
	defer cancel()

	doc, epoch, err := h.service.Mutate(ctx, store, req.Directive)
	if err != nil {
		h.writeStoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, StoryResponse{Epoch: epoch, Document: doc})
}

// Current returns a snapshot of the session's live document, or the error
// state left by the last failed cycle.
func (h *StoryHandler) Current(c *gin.Context) {
	store := h.registry.Store(middleware.GetSessionID(c))
	doc, epoch, errMsg := store.Snapshot()

	if doc == nil {
		if errMsg != "" {
			c.JSON(http.StatusOK, gin.H{"epoch": epoch, "document": nil, "error": errMsg})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "no story yet"})
		return
	}

	c.JSON(http.StatusOK, StoryResponse{Epoch: epoch, Document: doc})
}

// Events streams document updates over SSE: an initial snapshot, then one
// event per resolved illustration, document replacement, or error.
func (h *StoryHandler) Events(c *gin.Context) {
	store := h.registry.Store(middleware.GetSessionID(c))

	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Header("X-Request-ID", c.GetString("request_id"))
	c.Writer.Flush()

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	// Initial snapshot so a reconnecting client catches up immediately
	doc, epoch, errMsg := store.Snapshot()
	snapshot := services.DocumentEvent{Type: services.EventTypeDocument, Epoch: epoch, Document: doc}
	if doc == nil && errMsg != "" {
		snapshot = services.DocumentEvent{Type: services.EventTypeError, Epoch: epoch, Error: errMsg}
	}
	if !h.writeEvent(c, snapshot) {
		return
	}

	heartbeat := time.NewTicker(sseHeartbeatSecs * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !h.writeEvent(c, event) {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// readGenerateInput extracts the seed and optional inspiration image from a
// JSON or multipart request body.
func (h *StoryHandler) readGenerateInput(c *gin.Context) (string, *encoding.InlineImage, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", nil, err
		}
		return req.Seed, nil, nil
	}

	seed := strings.TrimSpace(c.PostForm("seed"))
	if seed == "" {
		return "", nil, errors.New("seed is required")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return seed, nil, nil
		}
		return "", nil, &encoding.IOError{Err: err}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, &encoding.IOError{Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	image, err := encoding.EncodeImage(file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return "", nil, err
	}
	return seed, image, nil
}

// writeStoryError maps the generation error taxonomy onto HTTP statuses.
// Story-level failures replace any prior document, so the client treats all
// of these as a fresh error state.
func (h *StoryHandler) writeStoryError(c *gin.Context, err error) {
	var netErr *services.NetworkError
	var parseErr *services.ParseError

	switch {
	case errors.Is(err, services.ErrNoStory):
		c.JSON(http.StatusConflict, gin.H{"error": "no story to mutate, generate one first"})
	case errors.Is(err, services.ErrEmptyStory):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the model returned an empty story"})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &netErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}

	logger.Warn("Story request rejected", logger.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": c.Writer.Status(),
	})
}

func (h *StoryHandler) writeEvent(c *gin.Context, event services.DocumentEvent) bool {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal SSE event", err, logger.Fields{
			"request_id": c.GetString("request_id"),
		})
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", eventJSON); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}
