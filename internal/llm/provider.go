package llm

import (
	"context"

	"github.com/fablehouse/fable-api/internal/encoding"
)

// StoryProvider defines the interface for text-generation backends.
// All providers MUST enforce the structured-output schema so the response is
// directly parseable without free-text extraction.
type StoryProvider interface {
	// GenerateStory runs one story request and returns the raw schema-shaped
	// JSON produced by the model. Parsing into the document model happens in
	// the orchestrator, so structural failures are handled in one place.
	GenerateStory(ctx context.Context, request *StoryRequest) (*StoryResponse, error)

	// Name returns the provider name (e.g. "openai", "gemini")
	Name() string
}

// ImageProvider defines the interface for image-generation backends.
type ImageProvider interface {
	// GenerateImage produces exactly one image for the given prompt.
	GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResult, error)

	Name() string
}

// StoryRequest contains all parameters needed for one story generation
type StoryRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	// Optional inline images accompanying the seed prompt
	Images []*encoding.InlineImage
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// StoryResponse contains the result from the text model
type StoryResponse struct {
	// RawJSON is the schema-shaped output text, unparsed
	RawJSON []byte
	Usage   TokenUsage
}

// TokenUsage mirrors the usage metadata providers report
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ImageRequest describes one illustration request
type ImageRequest struct {
	Model          string
	Prompt         string
	AspectRatio    string // e.g. "1:1", "16:9"
	OutputMIMEType string // e.g. "image/png"
}

// ImageResult is one generated image
type ImageResult struct {
	Data     []byte
	MIMEType string
}
