package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *Document {
	return &Document{
		Chapters: []Chapter{
			{
				Title: "The Drifting Station",
				Blocks: []ContentBlock{
					{ID: BlockID{0, 0}, Kind: BlockKindParagraph, Payload: "The station drifted.", Status: BlockStatusLoaded},
					{ID: BlockID{0, 1}, Kind: BlockKindImage, Payload: "a derelict station", Status: BlockStatusPending},
				},
			},
			{
				Title: "The Dead Star",
				Blocks: []ContentBlock{
					{ID: BlockID{1, 0}, Kind: BlockKindParagraph, Payload: "No light reached it.", Status: BlockStatusLoaded},
					{ID: BlockID{1, 1}, Kind: BlockKindImage, Payload: "a dead star", Status: BlockStatusPending},
				},
			},
		},
	}
}

func TestBlockID_String(t *testing.T) {
	assert.Equal(t, "2.5", BlockID{Chapter: 2, Block: 5}.String())
}

func TestDocument_Block(t *testing.T) {
	doc := testDocument()

	tests := []struct {
		name  string
		id    BlockID
		found bool
	}{
		{"first block", BlockID{0, 0}, true},
		{"last block", BlockID{1, 1}, true},
		{"chapter out of range", BlockID{2, 0}, false},
		{"block out of range", BlockID{0, 2}, false},
		{"negative chapter", BlockID{-1, 0}, false},
		{"negative block", BlockID{0, -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := doc.Block(tt.id)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, b)
				assert.Equal(t, tt.id, b.ID)
			}
		})
	}
}

func TestDocument_PendingIllustrations(t *testing.T) {
	doc := testDocument()

	pending := doc.PendingIllustrations()
	require.Len(t, pending, 2)

	// Dispatch order is chapter-then-block order.
	assert.Equal(t, BlockID{0, 1}, pending[0].ID)
	assert.Equal(t, "a derelict station", pending[0].Payload)
	assert.Equal(t, BlockID{1, 1}, pending[1].ID)

	// A resolved block no longer counts as pending.
	b, ok := doc.Block(BlockID{0, 1})
	require.True(t, ok)
	b.Status = BlockStatusLoaded
	assert.Len(t, doc.PendingIllustrations(), 1)
}

func TestDocument_PlainText(t *testing.T) {
	doc := testDocument()

	text := doc.PlainText()
	assert.Equal(t,
		"The Drifting Station\nThe station drifted.\na derelict station\n\n"+
			"The Dead Star\nNo light reached it.\na dead star",
		text)
}

func TestDocument_Clone(t *testing.T) {
	doc := testDocument()
	snapshot := doc.Clone()

	// Mutating the live document must not leak into the snapshot.
	b, ok := doc.Block(BlockID{0, 1})
	require.True(t, ok)
	b.Status = BlockStatusLoaded
	b.Payload = "data:image/png;base64,xyz"

	sb, ok := snapshot.Block(BlockID{0, 1})
	require.True(t, ok)
	assert.Equal(t, BlockStatusPending, sb.Status)
	assert.Equal(t, "a derelict station", sb.Payload)
}

func TestDocument_BlockCount(t *testing.T) {
	assert.Equal(t, 4, testDocument().BlockCount())
	assert.Equal(t, 0, (&Document{}).BlockCount())
}
