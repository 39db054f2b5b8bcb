package models

import (
	"fmt"
	"strings"
)

// BlockKind identifies what a content block holds
type BlockKind string

const (
	BlockKindParagraph BlockKind = "paragraph"
	BlockKindImage     BlockKind = "image"
)

// BlockStatus is the two-state lifecycle of a block.
// Paragraph blocks are Loaded from creation; Image blocks start Pending and
// transition to Loaded exactly once, when their illustration resolves.
type BlockStatus string

const (
	BlockStatusLoaded  BlockStatus = "loaded"
	BlockStatusPending BlockStatus = "pending"
)

// BlockID addresses a block by (chapter index, block index within chapter).
// IDs are stable within one document version; they carry no meaning across
// regenerations.
type BlockID struct {
	Chapter int `json:"chapter"`
	Block   int `json:"block"`
}

func (id BlockID) String() string {
	return fmt.Sprintf("%d.%d", id.Chapter, id.Block)
}

// ContentBlock is the smallest addressable unit of story content.
// For Image blocks the payload is the image prompt while Pending, and either
// a data-URI image reference or a human-readable error marker once Loaded.
type ContentBlock struct {
	ID      BlockID     `json:"id"`
	Kind    BlockKind   `json:"kind"`
	Payload string      `json:"payload"`
	Status  BlockStatus `json:"status"`
}

// Chapter owns an ordered sequence of blocks. Order is narrative-significant
// and fixed at creation; blocks are never inserted or removed afterwards.
type Chapter struct {
	Title  string         `json:"title"`
	Blocks []ContentBlock `json:"blocks"`
}

// Document is the full story for one generation cycle. It is created
// atomically with all chapters and blocks in place; afterwards only
// individual Image blocks change, in place, Pending to Loaded.
type Document struct {
	Chapters []Chapter `json:"chapters"`
}

// Block returns a pointer to the block with the given id, or false when the
// id does not address a block in this document.
func (d *Document) Block(id BlockID) (*ContentBlock, bool) {
	if id.Chapter < 0 || id.Chapter >= len(d.Chapters) {
		return nil, false
	}
	ch := &d.Chapters[id.Chapter]
	if id.Block < 0 || id.Block >= len(ch.Blocks) {
		return nil, false
	}
	return &ch.Blocks[id.Block], true
}

// PendingIllustrations returns value copies of every Image block still
// Pending, in chapter-then-block order. The copies carry the prompt payloads
// the illustrator needs; dispatch order follows this slice.
func (d *Document) PendingIllustrations() []ContentBlock {
	var pending []ContentBlock
	for _, ch := range d.Chapters {
		for _, b := range ch.Blocks {
			if b.Kind == BlockKindImage && b.Status == BlockStatusPending {
				pending = append(pending, b)
			}
		}
	}
	return pending
}

// BlockCount returns the total number of blocks across all chapters.
func (d *Document) BlockCount() int {
	n := 0
	for _, ch := range d.Chapters {
		n += len(ch.Blocks)
	}
	return n
}

// PlainText flattens the document into the textual snapshot embedded in
// mutation requests: chapter title followed by each block's payload, chapters
// separated by a blank line. Image payloads are included as-is; for an
// unresolved block that is the prompt text, which is exactly the continuity
// context a mutation needs.
func (d *Document) PlainText() string {
	var sb strings.Builder
	for i, ch := range d.Chapters {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(ch.Title)
		for _, b := range ch.Blocks {
			sb.WriteString("\n")
			sb.WriteString(b.Payload)
		}
	}
	return sb.String()
}

// Clone deep-copies the document so readers can hold a snapshot while the
// live copy keeps receiving illustration updates.
func (d *Document) Clone() *Document {
	out := &Document{Chapters: make([]Chapter, len(d.Chapters))}
	for i, ch := range d.Chapters {
		blocks := make([]ContentBlock, len(ch.Blocks))
		copy(blocks, ch.Blocks)
		out.Chapters[i] = Chapter{Title: ch.Title, Blocks: blocks}
	}
	return out
}
