package services

import (
	"encoding/json"
	"fmt"

	"github.com/fablehouse/fable-api/internal/llm"
	"github.com/fablehouse/fable-api/internal/models"
)

// Wire shapes matching the storybook schema. Providers guarantee the shape
// via structured output; the parser re-validates anyway and fails closed on
// any structural mismatch.
type storyPayload struct {
	Story []chapterPayload `json:"story"`
}

type chapterPayload struct {
	ChapterTitle  string         `json:"chapter_title"`
	ContentBlocks []blockPayload `json:"content_blocks"`
}

type blockPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ParseStoryDocument converts schema-shaped provider output into a Document.
// Paragraph blocks come out Loaded with their text verbatim; image_prompt
// blocks come out Pending with the prompt as payload, to be replaced when
// their illustration resolves.
//
// Malformed JSON or a structural mismatch yields a ParseError; a valid
// payload with zero chapters yields ErrEmptyStory. Neither produces a
// partial Document.
func ParseStoryDocument(rawJSON []byte) (*models.Document, error) {
	var payload storyPayload
	if err := json.Unmarshal(rawJSON, &payload); err != nil {
		return nil, &ParseError{Reason: "not valid JSON", Err: err}
	}

	if len(payload.Story) == 0 {
		return nil, ErrEmptyStory
	}

	doc := &models.Document{Chapters: make([]models.Chapter, 0, len(payload.Story))}

	for chapterIdx, ch := range payload.Story {
		if ch.ChapterTitle == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("chapter %d has no title", chapterIdx)}
		}
		if len(ch.ContentBlocks) == 0 {
			return nil, &ParseError{Reason: fmt.Sprintf("chapter %d has no content blocks", chapterIdx)}
		}

		blocks := make([]models.ContentBlock, 0, len(ch.ContentBlocks))
		for blockIdx, b := range ch.ContentBlocks {
			id := models.BlockID{Chapter: chapterIdx, Block: blockIdx}

			if b.Content == "" {
				return nil, &ParseError{Reason: fmt.Sprintf("block %s has no content", id)}
			}

			switch b.Type {
			case llm.SchemaBlockTypeParagraph:
				blocks = append(blocks, models.ContentBlock{
					ID:      id,
					Kind:    models.BlockKindParagraph,
					Payload: b.Content,
					Status:  models.BlockStatusLoaded,
				})
			case llm.SchemaBlockTypeImagePrompt:
				blocks = append(blocks, models.ContentBlock{
					ID:      id,
					Kind:    models.BlockKindImage,
					Payload: b.Content,
					Status:  models.BlockStatusPending,
				})
			default:
				return nil, &ParseError{Reason: fmt.Sprintf("block %s has unknown type %q", id, b.Type)}
			}
		}

		doc.Chapters = append(doc.Chapters, models.Chapter{
			Title:  ch.ChapterTitle,
			Blocks: blocks,
		})
	}

	return doc, nil
}
