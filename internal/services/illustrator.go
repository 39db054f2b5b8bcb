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

// failedIllustrationPayload is what a block shows when its illustration
// could not be generated. The failure is scoped to the one block; siblings
// render normally and nothing is retried.
const failedIllustrationPayload = "Illustration unavailable"

// Illustrator fills the image slots of a freshly generated document. Each
// slot gets exactly one image request; completions land independently and
// in any order.
type Illustrator struct {
	provider    llm.ImageProvider
	builder     *prompt.Builder
	model       string
	aspectRatio string
}

// NewIllustrator creates an illustrator bound to one image backend
func NewIllustrator(provider llm.ImageProvider, builder *prompt.Builder, model, aspectRatio string) *Illustrator {
	return &Illustrator{
		provider:    provider,
		builder:     builder,
		model:       model,
		aspectRatio: aspectRatio,
	}
}

// DispatchAll starts one illustration task per pending image block, in
// chapter-then-block order. epoch is the document version the tasks belong
// to; id and epoch travel by value into each goroutine so a later
// generation cannot be touched by these tasks.
func (il *Illustrator) DispatchAll(ctx context.Context, store *DocumentStore, epoch uint64, doc *models.Document) int {
	pending := doc.PendingIllustrations()
	for _, block := range pending {
		go il.Illustrate(ctx, store, epoch, block.ID, block.Payload)
	}
	return len(pending)
}

// Illustrate runs one image request and applies the outcome to the block it
// was dispatched for. A result arriving after the document was replaced is
// discarded by the epoch check inside the store.
func (il *Illustrator) Illustrate(ctx context.Context, store *DocumentStore, epoch uint64, id models.BlockID, promptText string) {
	startTime := time.Now()

	styledPrompt, err := il.builder.BuildIllustrationPrompt(promptText)
	if err != nil {
		il.applyFailure(ctx, store, epoch, id, startTime, err)
		return
	}

	result, err := il.provider.GenerateImage(ctx, &llm.ImageRequest{
		Model:          il.model,
		Prompt:         styledPrompt,
		AspectRatio:    il.aspectRatio,
		OutputMIMEType: "image/png",
	})
	if err != nil {
		il.applyFailure(ctx, store, epoch, id, startTime, err)
		return
	}

	img := &encoding.InlineImage{MIMEType: result.MIMEType, Data: result.Data}
	applied := store.UpdateBlockIfEpoch(epoch, id, img.DataURI())

	sentryMetrics.RecordIllustration(ctx, id.String(), true, time.Since(startTime))
	metrics.CloudWatch().RecordIllustration(il.model, true)

	logger.Info("Illustration resolved", logger.Fields{
		"block":       id.String(),
		"epoch":       epoch,
		"applied":     applied,
		"duration_ms": time.Since(startTime).Milliseconds(),
		"bytes":       len(result.Data),
		"cost_usd":    observability.FormatCost(observability.CalculateImageCost(il.model)),
	})
}

// applyFailure resolves the block with a visible error marker so it is never
// left Pending. The epoch check still applies: a failure from a discarded
// document changes nothing.
func (il *Illustrator) applyFailure(ctx context.Context, store *DocumentStore, epoch uint64, id models.BlockID, startTime time.Time, cause error) {
	blockErr := &ImageGenerationError{BlockID: id, Err: cause}
	applied := store.UpdateBlockIfEpoch(epoch, id, failedIllustrationPayload)

	sentryMetrics.RecordIllustration(ctx, id.String(), false, time.Since(startTime))
	metrics.CloudWatch().RecordIllustration(il.model, false)

	logger.Error("Illustration failed", blockErr, logger.Fields{
		"block":   id.String(),
		"epoch":   epoch,
		"applied": applied,
	})
}
