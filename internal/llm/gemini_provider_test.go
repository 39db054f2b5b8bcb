package llm

import (
	"testing"

	"github.com/fablehouse/fable-api/internal/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertSchemaToGemini(t *testing.T) {
	p := &GeminiProvider{}

	schema := p.convertSchemaToGemini(GetStorybookSchema())
	require.NotNil(t, schema)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"story"}, schema.Required)

	story, ok := schema.Properties["story"]
	require.True(t, ok)
	assert.Equal(t, genai.TypeArray, story.Type)

	chapter := story.Items
	require.NotNil(t, chapter)
	assert.ElementsMatch(t, []string{"chapter_title", "content_blocks"}, chapter.Required)

	blocks, ok := chapter.Properties["content_blocks"]
	require.True(t, ok)
	block := blocks.Items
	require.NotNil(t, block)
	assert.ElementsMatch(t,
		[]string{SchemaBlockTypeParagraph, SchemaBlockTypeImagePrompt},
		block.Properties["type"].Enum,
	)
}

func TestBuildGeminiContents(t *testing.T) {
	p := &GeminiProvider{}

	request := &StoryRequest{
		UserPrompt: "a lighthouse keeper and her fox",
		Images: []*encoding.InlineImage{
			{MIMEType: "image/png", Data: []byte{1, 2, 3}},
		},
	}

	contents := p.buildGeminiContents(request)
	require.Len(t, contents, 1)
	assert.Equal(t, geminiUserRole, contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "a lighthouse keeper and her fox", contents[0].Parts[0].Text)

	blob := contents[0].Parts[1].InlineData
	require.NotNil(t, blob)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, blob.Data)
}

func TestBuildGeminiContents_TextOnly(t *testing.T) {
	p := &GeminiProvider{}

	contents := p.buildGeminiContents(&StoryRequest{UserPrompt: "a derelict station"})
	require.Len(t, contents, 1)
	assert.Len(t, contents[0].Parts, 1)
}
