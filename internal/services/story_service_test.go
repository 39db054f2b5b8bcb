package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablehouse/fable-api/internal/encoding"
	"github.com/fablehouse/fable-api/internal/llm"
	"github.com/fablehouse/fable-api/internal/models"
	"github.com/fablehouse/fable-api/internal/prompt"
)

// stubStoryProvider returns a canned response and records requests.
type stubStoryProvider struct {
	mu       sync.Mutex
	requests []*llm.StoryRequest
	rawJSON  []byte
	err      error
}

func (s *stubStoryProvider) Name() string { return "stub" }

func (s *stubStoryProvider) GenerateStory(_ context.Context, req *llm.StoryRequest) (*llm.StoryResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.StoryResponse{
		RawJSON: s.rawJSON,
		Usage:   llm.TokenUsage{InputTokens: 100, OutputTokens: 400, TotalTokens: 500},
	}, nil
}

func (s *stubStoryProvider) lastRequest() *llm.StoryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// stubProviderSource hands out one fixed story provider.
type stubProviderSource struct {
	provider llm.StoryProvider
	err      error
}

func (s *stubProviderSource) GetStoryProvider(context.Context, string, bool) (llm.StoryProvider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

const validStoryJSON = `{
	"story": [
		{
			"chapter_title": "Adrift",
			"content_blocks": [
				{"type": "paragraph", "content": "A derelict station drifting past a dead star."},
				{"type": "image_prompt", "content": "A rusted hull lit by a faint red ember."}
			]
		}
	]
}`

func newTestService(storyProvider llm.StoryProvider, imageProvider llm.ImageProvider) *StoryService {
	builder := prompt.NewPromptBuilder()
	illustrator := NewIllustrator(imageProvider, builder, "imagen-4.0-generate-001", "1:1")
	return NewStoryService(&stubProviderSource{provider: storyProvider}, builder, illustrator, "gemini-2.5-flash")
}

func TestStoryService_Generate(t *testing.T) {
	storyProvider := &stubStoryProvider{rawJSON: []byte(validStoryJSON)}
	imageProvider := &stubImageProvider{}
	service := newTestService(storyProvider, imageProvider)
	store := NewDocumentStore()

	doc, epoch, err := service.Generate(context.Background(), store, "a derelict station drifting past a dead star", nil)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, uint64(1), epoch)

	require.Len(t, doc.Chapters, 1)
	require.Len(t, doc.Chapters[0].Blocks, 2)
	assert.Equal(t, models.BlockStatusLoaded, doc.Chapters[0].Blocks[0].Status)
	assert.Equal(t, models.BlockStatusPending, doc.Chapters[0].Blocks[1].Status)

	// The request carried the schema and the seed
	req := storyProvider.lastRequest()
	require.NotNil(t, req)
	require.NotNil(t, req.OutputSchema)
	assert.Equal(t, "storybook", req.OutputSchema.Name)
	assert.Contains(t, req.UserPrompt, "a derelict station drifting past a dead star")
	assert.Empty(t, req.Images)

	// The illustration for the pending block eventually resolves in the store
	resolved := waitForResolved(t, store, 1)
	block, _ := resolved.Block(models.BlockID{Chapter: 0, Block: 1})
	assert.True(t, strings.HasPrefix(block.Payload, "data:image/"))
}

func TestStoryService_GenerateWithSeedImage(t *testing.T) {
	storyProvider := &stubStoryProvider{rawJSON: []byte(validStoryJSON)}
	service := newTestService(storyProvider, &stubImageProvider{})
	store := NewDocumentStore()

	seed := &encoding.InlineImage{MIMEType: "image/jpeg", Data: []byte{9, 9}}
	_, _, err := service.Generate(context.Background(), store, "a fox", seed)
	require.NoError(t, err)

	req := storyProvider.lastRequest()
	require.Len(t, req.Images, 1)
	assert.Equal(t, "image/jpeg", req.Images[0].MIMEType)
}

func TestStoryService_GenerateNetworkFailure(t *testing.T) {
	storyProvider := &stubStoryProvider{err: assert.AnError}
	service := newTestService(storyProvider, &stubImageProvider{})
	store := NewDocumentStore()

	// Prior document exists, then the next cycle fails
	store.SetDocument(pendingDocument())

	doc, _, err := service.Generate(context.Background(), store, "a fox", nil)
	assert.Nil(t, doc)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	// Failure clears the prior document, no partial state survives
	live, _, errMsg := store.Snapshot()
	assert.Nil(t, live)
	assert.NotEmpty(t, errMsg)
}

func TestStoryService_GenerateEmptyStory(t *testing.T) {
	storyProvider := &stubStoryProvider{rawJSON: []byte(`{"story": []}`)}
	service := newTestService(storyProvider, &stubImageProvider{})
	store := NewDocumentStore()

	doc, _, err := service.Generate(context.Background(), store, "a fox", nil)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrEmptyStory)

	live, _, errMsg := store.Snapshot()
	assert.Nil(t, live)
	assert.NotEmpty(t, errMsg)
}

func TestStoryService_GenerateMalformedResponse(t *testing.T) {
	storyProvider := &stubStoryProvider{rawJSON: []byte(`not json at all`)}
	service := newTestService(storyProvider, &stubImageProvider{})
	store := NewDocumentStore()

	doc, _, err := service.Generate(context.Background(), store, "a fox", nil)
	assert.Nil(t, doc)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)

	live, _, _ := store.Snapshot()
	assert.Nil(t, live)
}

func TestStoryService_MutateWithoutPriorStory(t *testing.T) {
	service := newTestService(&stubStoryProvider{rawJSON: []byte(validStoryJSON)}, &stubImageProvider{})
	store := NewDocumentStore()

	doc, _, err := service.Mutate(context.Background(), store, "add a betrayal")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrNoStory)
}

func TestStoryService_MutateEmbedsSnapshot(t *testing.T) {
	storyProvider := &stubStoryProvider{rawJSON: []byte(validStoryJSON)}
	service := newTestService(storyProvider, &stubImageProvider{})
	store := NewDocumentStore()

	_, firstEpoch, err := service.Generate(context.Background(), store, "a station", nil)
	require.NoError(t, err)

	// Mutation may return a shape unrelated to the prior document
	storyProvider.rawJSON = []byte(`{
		"story": [
			{"chapter_title": "One", "content_blocks": [{"type": "paragraph", "content": "a"}]},
			{"chapter_title": "Two", "content_blocks": [{"type": "paragraph", "content": "b"}]},
			{"chapter_title": "Three", "content_blocks": [{"type": "paragraph", "content": "c"}]}
		]
	}`)

	doc, epoch, err := service.Mutate(context.Background(), store, "add a betrayal")
	require.NoError(t, err)
	assert.Greater(t, epoch, firstEpoch)
	assert.Len(t, doc.Chapters, 3)

	// The mutation request carried the directive and the prior story text
	req := storyProvider.lastRequest()
	assert.Contains(t, req.UserPrompt, "add a betrayal")
	assert.Contains(t, req.UserPrompt, "A derelict station drifting past a dead star.")
	assert.Contains(t, req.SystemPrompt, "directive")
}
