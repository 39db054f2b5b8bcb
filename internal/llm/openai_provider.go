package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	providerNameOpenAI = "openai"
	openAIUserRole     = "user"

	mimeTypePNG = "image/png"
)

// OpenAIProvider implements StoryProvider and ImageProvider using OpenAI's
// Responses API (text) and Images API (illustrations).
//
// The Responses API path is text-only here: image-seeded story requests are
// routed to Gemini by the factory because inline image input is not wired
// for this provider.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// GenerateStory implements story generation using OpenAI's Responses API
func (p *OpenAIProvider) GenerateStory(ctx context.Context, request *StoryRequest) (*StoryResponse, error) {
	startTime := time.Now()
	log.Printf("📖 OPENAI STORY REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate_story")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	if len(request.Images) > 0 {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai provider does not accept inline seed images")
	}

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	response, err := p.processResponse(resp, startTime, transaction)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	return response, nil
}

// GenerateImage implements illustration generation using OpenAI's Images API
func (p *OpenAIProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResult, error) {
	startTime := time.Now()
	log.Printf("🎨 OPENAI IMAGE REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate_image")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := openai.ImageGenerateParams{
		Model:  openai.ImageModel(request.Model),
		Prompt: request.Prompt,
		N:      openai.Int(1),
		Size:   imageSizeForAspectRatio(request.AspectRatio),
	}

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		log.Printf("❌ OPENAI IMAGE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai image request failed: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai response did not include image data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("failed to decode openai image payload: %w", err)
	}

	log.Printf("✅ OPENAI IMAGE COMPLETED in %v (%d bytes)", time.Since(startTime), len(data))
	transaction.SetTag("success", "true")

	return &ImageResult{
		Data:     data,
		MIMEType: mimeTypePNG,
	}, nil
}

// buildRequestParams converts a StoryRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *StoryRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(request.UserPrompt, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
	}

	if request.OutputSchema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.OutputSchema.Name,
				request.OutputSchema.Schema,
			),
		}
		log.Printf("📋 JSON SCHEMA CONFIGURED: %s", request.OutputSchema.Name)
	}

	return params
}

// processResponse converts an OpenAI response to our StoryResponse
func (p *OpenAIProvider) processResponse(
	resp *responses.Response,
	startTime time.Time,
	transaction *sentry.Span,
) (*StoryResponse, error) {
	span := transaction.StartChild("process_response")
	defer span.Finish()

	textOutput := p.extractAndCleanTextOutput(resp)
	log.Printf("📥 OPENAI RESPONSE: output_length=%d, output_items=%d, tokens=%d",
		len(textOutput), len(resp.Output), resp.Usage.TotalTokens)

	if textOutput == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	log.Printf("📊 USAGE: input=%d, output=%d, total=%d",
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)

	log.Printf("✅ OPENAI STORY COMPLETED in %v", time.Since(startTime))

	return &StoryResponse{
		RawJSON: []byte(textOutput),
		Usage: TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// extractAndCleanTextOutput extracts and cleans text output from response
func (p *OpenAIProvider) extractAndCleanTextOutput(resp *responses.Response) string {
	textOutput := resp.OutputText()

	if textOutput == "" {
		return ""
	}

	// Strip markdown code blocks
	cleaned := strings.TrimPrefix(textOutput, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned != textOutput {
		log.Printf("🧹 Stripped markdown code blocks from output: %d -> %d chars", len(textOutput), len(cleaned))
	}

	return cleaned
}

// imageSizeForAspectRatio maps the requested aspect ratio to the closest size
// the Images API supports.
func imageSizeForAspectRatio(aspectRatio string) openai.ImageGenerateParamsSize {
	switch aspectRatio {
	case "16:9", "4:3", "3:2":
		return openai.ImageGenerateParamsSize1536x1024
	case "9:16", "3:4", "2:3":
		return openai.ImageGenerateParamsSize1024x1536
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}
