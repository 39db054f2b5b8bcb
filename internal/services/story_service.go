package services

import (
	"context"
	"time"

	"github.com/fablehouse/fable-api/internal/encoding"
	"github.com/fablehouse/fable-api/internal/llm"
	"github.com/fablehouse/fable-api/internal/logger"
	"github.com/fablehouse/fable-api/internal/metrics"
	"github.com/fablehouse/fable-api/internal/models"
	"github.com/fablehouse/fable-api/internal/observability"
	"github.com/fablehouse/fable-api/internal/prompt"
)

// Global metrics instance
var sentryMetrics = metrics.NewSentryMetrics()

// StoryProviderSource resolves the text backend for one request.
// *llm.ProviderFactory satisfies it.
type StoryProviderSource interface {
	GetStoryProvider(ctx context.Context, model string, withImages bool) (llm.StoryProvider, error)
}

// StoryService is the generation orchestrator. Generate and Mutate both
// funnel into requestStory: one text request, one parse, one atomic
// document install, then fire-and-forget illustration dispatch.
type StoryService struct {
	providers   StoryProviderSource
	builder     *prompt.Builder
	illustrator *Illustrator
	storyModel  string
}

// NewStoryService creates a story service bound to one text model
func NewStoryService(providers StoryProviderSource, builder *prompt.Builder, illustrator *Illustrator, storyModel string) *StoryService {
	return &StoryService{
		providers:   providers,
		builder:     builder,
		illustrator: illustrator,
		storyModel:  storyModel,
	}
}

// Generate creates a fresh story from a seed idea and an optional
// inspiration image, installs it in the session store, and dispatches the
// illustrations. The returned document has every image block Pending.
func (s *StoryService) Generate(ctx context.Context, store *DocumentStore, seed string, image *encoding.InlineImage) (*models.Document, uint64, error) {
	systemPrompt, err := s.builder.BuildStorySystemPrompt()
	if err != nil {
		return nil, 0, err
	}

	var images []*encoding.InlineImage
	if image != nil {
		images = append(images, image)
	}

	return s.requestStory(ctx, store, "generate", systemPrompt, s.builder.BuildStoryUserPrompt(seed), images)
}

// Mutate regenerates the whole story under a change directive, using a
// plain-text snapshot of the current document as continuity context. The new
// document's shape has no required relationship to the old one.
func (s *StoryService) Mutate(ctx context.Context, store *DocumentStore, directive string) (*models.Document, uint64, error) {
	prior, _, _ := store.Snapshot()
	if prior == nil {
		return nil, 0, ErrNoStory
	}

	systemPrompt, err := s.builder.BuildMutationSystemPrompt()
	if err != nil {
		return nil, 0, err
	}

	userPrompt := s.builder.BuildMutationUserPrompt(directive, prior.PlainText())
	return s.requestStory(ctx, store, "mutate", systemPrompt, userPrompt, nil)
}

// requestStory runs one generation cycle. On any failure (network, parse,
// empty story) no document is installed: the session drops to an error state
// and the prior document is cleared rather than partially replaced.
func (s *StoryService) requestStory(ctx context.Context, store *DocumentStore, action, systemPrompt, userPrompt string, images []*encoding.InlineImage) (*models.Document, uint64, error) {
	startTime := time.Now()

	trace := observability.GetClient().StartTrace(ctx, "story."+action, map[string]interface{}{
		"model":       s.storyModel,
		"with_images": len(images) > 0,
	})
	defer trace.Finish()

	provider, err := s.providers.GetStoryProvider(ctx, s.storyModel, len(images) > 0)
	if err != nil {
		store.SetError(err.Error())
		return nil, 0, err
	}

	gen := trace.Generation("story.text_request", map[string]interface{}{
		"provider": provider.Name(),
	})
	gen.Input(userPrompt)

	resp, err := provider.GenerateStory(ctx, &llm.StoryRequest{
		Model:        s.storyModel,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Images:       images,
		OutputSchema: &llm.OutputSchema{
			Name:        "storybook",
			Description: "A multi-chapter illustrated story",
			Schema:      llm.GetStorybookSchema(),
		},
	})
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		netErr := &NetworkError{Provider: provider.Name(), Err: err}
		store.SetError(netErr.Error())
		sentryMetrics.RecordStoryDuration(ctx, time.Since(startTime), false)
		metrics.CloudWatch().RecordStoryDuration(time.Since(startTime), false)
		logger.Error("Story request failed", netErr, logger.Fields{
			"action": action,
			"model":  s.storyModel,
		})
		return nil, 0, netErr
	}

	sentryMetrics.RecordTokenUsage(ctx, s.storyModel,
		resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	metrics.CloudWatch().RecordTokenUsage(s.storyModel,
		resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	gen.LogStoryResponse(s.storyModel, userPrompt, string(resp.RawJSON), resp.Usage, map[string]interface{}{
		"action": action,
	})
	gen.Finish()

	doc, err := ParseStoryDocument(resp.RawJSON)
	if err != nil {
		store.SetError(err.Error())
		sentryMetrics.RecordStoryDuration(ctx, time.Since(startTime), false)
		metrics.CloudWatch().RecordStoryDuration(time.Since(startTime), false)
		logger.Error("Story response rejected", err, logger.Fields{
			"action": action,
			"model":  s.storyModel,
		})
		return nil, 0, err
	}

	epoch := store.SetDocument(doc)

	// Dispatch outlives the HTTP request that triggered it; illustrations
	// keep resolving after the response is sent.
	dispatched := s.illustrator.DispatchAll(context.WithoutCancel(ctx), store, epoch, doc)

	sentryMetrics.RecordStoryDuration(ctx, time.Since(startTime), true)
	metrics.CloudWatch().RecordStoryDuration(time.Since(startTime), true)

	logger.Info("Story installed", logger.Fields{
		"action":        action,
		"model":         s.storyModel,
		"epoch":         epoch,
		"chapters":      len(doc.Chapters),
		"blocks":        doc.BlockCount(),
		"illustrations": dispatched,
		"total_tokens":  resp.Usage.TotalTokens,
		"duration_ms":   time.Since(startTime).Milliseconds(),
	})

	return doc.Clone(), epoch, nil
}
