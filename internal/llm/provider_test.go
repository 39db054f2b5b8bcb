package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStoryProvider is a test implementation of the StoryProvider interface
type MockStoryProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *StoryRequest) (*StoryResponse, error)
}

func (m *MockStoryProvider) Name() string {
	return m.name
}

func (m *MockStoryProvider) GenerateStory(ctx context.Context, request *StoryRequest) (*StoryResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &StoryResponse{}, nil
}

// MockImageProvider is a test implementation of the ImageProvider interface
type MockImageProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *ImageRequest) (*ImageResult, error)
}

func (m *MockImageProvider) Name() string {
	return m.name
}

func (m *MockImageProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResult, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &ImageResult{}, nil
}

func TestProviderInterface(t *testing.T) {
	mock := &MockStoryProvider{
		name: "mock",
	}

	assert.Equal(t, "mock", mock.Name())
}

func TestMockProviderGenerateStory(t *testing.T) {
	callCount := 0
	mock := &MockStoryProvider{
		name: "test",
		generateFunc: func(_ context.Context, request *StoryRequest) (*StoryResponse, error) {
			callCount++
			require.Equal(t, "test-model", request.Model)
			return &StoryResponse{
				RawJSON: []byte(`{"story":[]}`),
				Usage:   TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
			}, nil
		},
	}

	req := &StoryRequest{
		Model: "test-model",
		OutputSchema: &OutputSchema{
			Name:   "storybook",
			Schema: GetStorybookSchema(),
		},
	}

	resp, err := mock.GenerateStory(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 30, resp.Usage.TotalTokens)
}

func TestGetStorybookSchema(t *testing.T) {
	schema := GetStorybookSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"story"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	story, ok := props["story"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", story["type"])

	chapter, ok := story["items"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"chapter_title", "content_blocks"}, chapter["required"])
}

func TestProviderFactory_GetStoryProvider(t *testing.T) {
	factory := NewProviderFactory("openai-key", "gemini-key")

	provider, err := factory.GetStoryProvider(context.Background(), "gpt-5-mini", false)
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())

	provider, err = factory.GetStoryProvider(context.Background(), "gemini-2.5-flash", false)
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())

	// Seed images force the Gemini path
	provider, err = factory.GetStoryProvider(context.Background(), "gemini-2.5-flash", true)
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())

	_, err = factory.GetStoryProvider(context.Background(), "gpt-5-mini", true)
	assert.Error(t, err)
}

func TestProviderFactory_GetStoryProvider_MissingKeys(t *testing.T) {
	factory := NewProviderFactory("", "")

	_, err := factory.GetStoryProvider(context.Background(), "gpt-5-mini", false)
	assert.Error(t, err)

	_, err = factory.GetStoryProvider(context.Background(), "gemini-2.5-flash", false)
	assert.Error(t, err)
}

func TestProviderFactory_GetImageProvider(t *testing.T) {
	factory := NewProviderFactory("openai-key", "gemini-key")

	provider, err := factory.GetImageProvider(context.Background(), "gpt-image-1")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())

	provider, err = factory.GetImageProvider(context.Background(), "imagen-4.0-generate-001")
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
}
