package render

import (
	"strings"

	"section-indexer/pkg/models"
)

// PlainText renders a section's owned content blocks into flat readable
// text, one block per paragraph. Nested-section markers are skipped; a
// section's rendered content never includes its descendants' text.
type PlainText struct{}

// NewPlainText creates a PlainText renderer.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Render implements flatten.Renderer. Pure function, no side effects.
func (r *PlainText) Render(blocks []models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.IsSection() {
			continue
		}
		tb, ok := b.(models.TextBlock)
		if !ok {
			continue
		}
		text := strings.TrimSpace(tb.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
