package llm

// Content block type values the schema permits.
const (
	SchemaBlockTypeParagraph   = "paragraph"
	SchemaBlockTypeImagePrompt = "image_prompt"
)

// GetStorybookSchema returns the JSON schema for structured story output.
// The shape is the wire contract with the text model: a single `story` array
// of chapters, each carrying a title and an ordered list of content blocks
// that alternate between narrative paragraphs and illustration prompts.
func GetStorybookSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"story": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"chapter_title": map[string]any{"type": "string"},
						"content_blocks": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"type": map[string]any{
										"type": "string",
										"enum": []string{SchemaBlockTypeParagraph, SchemaBlockTypeImagePrompt},
									},
									"content": map[string]any{"type": "string"},
								},
								"required":             []string{"type", "content"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"chapter_title", "content_blocks"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"story"},
		"additionalProperties": false,
	}
}
