package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablehouse/fable-api/internal/models"
)

func TestParseStoryDocument(t *testing.T) {
	raw := []byte(`{
		"story": [
			{
				"chapter_title": "The Drifting Station",
				"content_blocks": [
					{"type": "paragraph", "content": "The station turned slowly in the dark."},
					{"type": "image_prompt", "content": "A derelict station silhouetted against a dead star."},
					{"type": "paragraph", "content": "Nobody had answered the hails for years."}
				]
			},
			{
				"chapter_title": "The Dead Star",
				"content_blocks": [
					{"type": "paragraph", "content": "Its light had gone out long ago."},
					{"type": "image_prompt", "content": "A cold cinder of a star, faintly glowing."}
				]
			}
		]
	}`)

	doc, err := ParseStoryDocument(raw)
	require.NoError(t, err)
	require.NotNil(t, doc)

	// Chapter count and per-chapter block counts match the input exactly
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, "The Drifting Station", doc.Chapters[0].Title)
	require.Len(t, doc.Chapters[0].Blocks, 3)
	require.Len(t, doc.Chapters[1].Blocks, 2)

	// Paragraphs are Loaded immediately, image prompts Pending, in input order
	b := doc.Chapters[0].Blocks
	assert.Equal(t, models.BlockKindParagraph, b[0].Kind)
	assert.Equal(t, models.BlockStatusLoaded, b[0].Status)
	assert.Equal(t, "The station turned slowly in the dark.", b[0].Payload)

	assert.Equal(t, models.BlockKindImage, b[1].Kind)
	assert.Equal(t, models.BlockStatusPending, b[1].Status)
	assert.Equal(t, "A derelict station silhouetted against a dead star.", b[1].Payload)

	assert.Equal(t, models.BlockKindParagraph, b[2].Kind)
	assert.Equal(t, models.BlockStatusLoaded, b[2].Status)

	// IDs carry (chapter, block) positions
	assert.Equal(t, models.BlockID{Chapter: 0, Block: 1}, b[1].ID)
	assert.Equal(t, models.BlockID{Chapter: 1, Block: 1}, doc.Chapters[1].Blocks[1].ID)
}

func TestParseStoryDocument_SingleChapterScenario(t *testing.T) {
	raw := []byte(`{
		"story": [
			{
				"chapter_title": "Adrift",
				"content_blocks": [
					{"type": "paragraph", "content": "A derelict station drifting past a dead star."},
					{"type": "image_prompt", "content": "A rusted hull lit by a faint red ember of a star."}
				]
			}
		]
	}`)

	doc, err := ParseStoryDocument(raw)
	require.NoError(t, err)

	require.Len(t, doc.Chapters, 1)
	require.Len(t, doc.Chapters[0].Blocks, 2)
	assert.Equal(t, models.BlockKindParagraph, doc.Chapters[0].Blocks[0].Kind)
	assert.Equal(t, models.BlockStatusLoaded, doc.Chapters[0].Blocks[0].Status)
	assert.Equal(t, models.BlockKindImage, doc.Chapters[0].Blocks[1].Kind)
	assert.Equal(t, models.BlockStatusPending, doc.Chapters[0].Blocks[1].Status)
}

func TestParseStoryDocument_EmptyStory(t *testing.T) {
	doc, err := ParseStoryDocument([]byte(`{"story": []}`))
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrEmptyStory)
}

func TestParseStoryDocument_MalformedJSON(t *testing.T) {
	doc, err := ParseStoryDocument([]byte(`this is not json`))
	assert.Nil(t, doc)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParseStoryDocument_StructuralMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			"unknown block type",
			`{"story":[{"chapter_title":"A","content_blocks":[{"type":"video","content":"x"}]}]}`,
		},
		{
			"missing chapter title",
			`{"story":[{"content_blocks":[{"type":"paragraph","content":"x"}]}]}`,
		},
		{
			"chapter without blocks",
			`{"story":[{"chapter_title":"A","content_blocks":[]}]}`,
		},
		{
			"block without content",
			`{"story":[{"chapter_title":"A","content_blocks":[{"type":"paragraph"}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseStoryDocument([]byte(tt.raw))
			assert.Nil(t, doc)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
		})
	}
}
