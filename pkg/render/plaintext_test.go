package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"section-indexer/pkg/models"
)

func TestPlainText_Render(t *testing.T) {
	r := NewPlainText()

	blocks := []models.Block{
		models.TextBlock{Kind: models.BlockParagraph, Text: "First paragraph."},
		models.TextBlock{Kind: models.BlockCode, Text: "x := 1"},
	}

	assert.Equal(t, "First paragraph.\n\nx := 1", r.Render(blocks))
}

func TestPlainText_RenderEmpty(t *testing.T) {
	r := NewPlainText()

	assert.Equal(t, "", r.Render(nil))
	assert.Equal(t, "", r.Render([]models.Block{}))
}

func TestPlainText_SkipsSectionMarkers(t *testing.T) {
	r := NewPlainText()

	child := &models.SectionNode{
		ID: "child", Name: "Child", Level: 1,
		Blocks: []models.Block{models.TextBlock{Kind: models.BlockParagraph, Text: "Child text."}},
	}
	blocks := []models.Block{
		models.TextBlock{Kind: models.BlockParagraph, Text: "Own text."},
		models.SectionRef{Section: child},
	}

	out := r.Render(blocks)
	assert.Equal(t, "Own text.", out)
	assert.NotContains(t, out, "Child text.")
}

func TestPlainText_SkipsBlankBlocks(t *testing.T) {
	r := NewPlainText()

	blocks := []models.Block{
		models.TextBlock{Kind: models.BlockParagraph, Text: "   "},
		models.TextBlock{Kind: models.BlockParagraph, Text: "Kept."},
		models.TextBlock{Kind: models.BlockParagraph, Text: ""},
	}

	assert.Equal(t, "Kept.", r.Render(blocks))
}

func TestPlainText_TrimsBlockWhitespace(t *testing.T) {
	r := NewPlainText()

	blocks := []models.Block{
		models.TextBlock{Kind: models.BlockParagraph, Text: "  padded  \n"},
	}

	assert.Equal(t, "padded", r.Render(blocks))
}
