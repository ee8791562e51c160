package models

import "time"

// SectionNode is one heading-delimited unit of a parsed document.
// Trees are built once by the tree builder and are read-only afterwards.
// Parent is a non-owning back reference; ownership runs top-down through
// Children only.
type SectionNode struct {
	ID       string         // Stable anchor, unique within a document
	Name     string         // Display title of the section
	Level    int            // Depth assigned by the tree builder (h1 = 0)
	Parent   *SectionNode   // Enclosing section, nil for top-level
	Children []*SectionNode // Nested sections in document order
	Blocks   []Block        // Content owned directly by this section
}

// Block is a content unit belonging to a section. Nested sections appear in
// the owning section's block list as marker blocks so renderers can tell
// owned content from subsection boundaries.
type Block interface {
	// IsSection reports whether this block marks a nested section rather
	// than content owned by the enclosing section.
	IsSection() bool
}

// BlockKind categorizes owned content blocks.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockCode      BlockKind = "code"
	BlockList      BlockKind = "list"
	BlockQuote     BlockKind = "quote"
	BlockTable     BlockKind = "table"
	BlockHTML      BlockKind = "html"
	BlockThematic  BlockKind = "thematic_break"
)

// TextBlock is an owned content block carrying already-extracted text.
type TextBlock struct {
	Kind BlockKind
	Text string
}

// IsSection implements Block.
func (b TextBlock) IsSection() bool { return false }

// SectionRef marks the position of a nested section within its parent's
// block list. Renderers must skip it; the child's content belongs to the
// child's own record.
type SectionRef struct {
	Section *SectionNode
}

// IsSection implements Block.
func (b SectionRef) IsSection() bool { return true }

// DocDBEntry stores the result of processing one document in the database.
type DocDBEntry struct {
	Status      DocStatus `json:"status"`
	ErrorType   string    `json:"error_type,omitempty"`   // Error category (on failure)
	RecordCount int       `json:"record_count,omitempty"` // Records emitted (on success)
	ContentHash string    `json:"content_hash,omitempty"` // SHA-256 of the source document
	SourcePath  string    `json:"source_path,omitempty"`  // Path relative to the input dir
	ProcessedAt time.Time `json:"processed_at,omitempty"` // Timestamp of successful processing
	LastAttempt time.Time `json:"last_attempt"`           // Timestamp of the last attempt
}
