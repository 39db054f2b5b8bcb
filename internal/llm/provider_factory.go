package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on model name
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
	}
}

// GetStoryProvider returns the text provider for the given model. Requests
// that carry inline seed images need a provider that accepts them, so
// withImages forces the Gemini path regardless of model.
func (f *ProviderFactory) GetStoryProvider(ctx context.Context, model string, withImages bool) (StoryProvider, error) {
	modelLower := strings.ToLower(model)

	if withImages {
		if !strings.HasPrefix(modelLower, "gemini-") && modelLower != "" {
			return nil, fmt.Errorf("model %s cannot accept seed images (use a gemini model)", model)
		}
		return f.geminiProvider(ctx)
	}

	// GPT models use OpenAI
	if strings.HasPrefix(modelLower, "gpt-") {
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil
	}

	// Default to Gemini for gemini-* and unknown models
	return f.geminiProvider(ctx)
}

// GetImageProvider returns the illustration provider for the given model
func (f *ProviderFactory) GetImageProvider(ctx context.Context, model string) (ImageProvider, error) {
	modelLower := strings.ToLower(model)

	if strings.HasPrefix(modelLower, "gpt-image") || strings.HasPrefix(modelLower, "dall-e") {
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil
	}

	// Imagen and gemini image models use the Gemini backend
	return f.geminiProvider(ctx)
}

func (f *ProviderFactory) geminiProvider(ctx context.Context) (*GeminiProvider, error) {
	if f.geminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	return NewGeminiProvider(ctx, f.geminiAPIKey)
}
