package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"
)

// GeminiProvider implements StoryProvider and ImageProvider using Google's
// Gemini API (text) and Imagen (illustrations).
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// GenerateStory implements story generation with structured output
func (p *GeminiProvider) GenerateStory(ctx context.Context, request *StoryRequest) (*StoryResponse, error) {
	startTime := time.Now()
	log.Printf("📖 GEMINI STORY REQUEST STARTED (Model: %s, images: %d)", request.Model, len(request.Images))

	transaction := sentry.StartTransaction(ctx, "gemini.generate_story")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents := p.buildGeminiContents(request)

	// Configure generation with structured output
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		},
	}
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
		config.ResponseSchema = p.convertSchemaToGemini(request.OutputSchema.Schema)
	}

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	response, err := p.processGeminiResponse(result, startTime, transaction)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	return response, nil
}

// GenerateImage implements illustration generation via Imagen
func (p *GeminiProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResult, error) {
	startTime := time.Now()
	log.Printf("🎨 GEMINI IMAGE REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate_image")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: request.OutputMIMEType,
		AspectRatio:    request.AspectRatio,
	}

	result, err := p.client.Models.GenerateImages(ctx, request.Model, request.Prompt, config)
	if err != nil {
		log.Printf("❌ GEMINI IMAGE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}

	if len(result.GeneratedImages) == 0 || result.GeneratedImages[0].Image == nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini response did not include an image")
	}

	image := result.GeneratedImages[0].Image
	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = request.OutputMIMEType
	}

	log.Printf("✅ GEMINI IMAGE COMPLETED in %v (%d bytes)", time.Since(startTime), len(image.ImageBytes))
	transaction.SetTag("success", "true")

	return &ImageResult{
		Data:     image.ImageBytes,
		MIMEType: mimeType,
	}, nil
}

// buildGeminiContents converts a story request to Gemini Content format.
// The seed prompt and any inline images travel in one user turn.
func (p *GeminiProvider) buildGeminiContents(request *StoryRequest) []*genai.Content {
	parts := []*genai.Part{{Text: request.UserPrompt}}

	for _, img := range request.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			},
		})
	}

	return []*genai.Content{{
		Role:  geminiUserRole,
		Parts: parts,
	}}
}

// convertSchemaToGemini converts our JSON schema to Gemini's schema format.
// Gemini uses its own Schema type rather than raw JSON Schema, so the
// storybook shape is mapped explicitly.
func (p *GeminiProvider) convertSchemaToGemini(_ map[string]any) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"story": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"chapter_title": {Type: genai.TypeString},
						"content_blocks": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"type": {
										Type: genai.TypeString,
										Enum: []string{SchemaBlockTypeParagraph, SchemaBlockTypeImagePrompt},
									},
									"content": {Type: genai.TypeString},
								},
								Required: []string{"type", "content"},
							},
						},
					},
					Required: []string{"chapter_title", "content_blocks"},
				},
			},
		},
		Required: []string{"story"},
	}
}

// processGeminiResponse converts a Gemini response to our StoryResponse
func (p *GeminiProvider) processGeminiResponse(
	result *genai.GenerateContentResponse,
	startTime time.Time,
	transaction *sentry.Span,
) (*StoryResponse, error) {
	span := transaction.StartChild("process_response")
	defer span.Finish()

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in Gemini response")
	}

	textOutput := candidate.Content.Parts[0].Text
	log.Printf("📥 GEMINI RESPONSE: output_length=%d", len(textOutput))

	if textOutput == "" {
		return nil, fmt.Errorf("gemini response did not include any output text")
	}

	response := &StoryResponse{RawJSON: []byte(textOutput)}

	if result.UsageMetadata != nil {
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount)
		response.Usage = TokenUsage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}

	log.Printf("✅ GEMINI STORY COMPLETED in %v", time.Since(startTime))
	return response, nil
}
