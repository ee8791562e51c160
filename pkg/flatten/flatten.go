package flatten

import (
	"fmt"

	"section-indexer/pkg/models"
	"section-indexer/pkg/process"
	"section-indexer/pkg/utils"
)

// Renderer converts a section's owned content blocks into flat readable
// text. Implementations must be pure; the flattener invokes it once per
// section with the non-section blocks only.
type Renderer interface {
	Render(blocks []models.Block) string
}

// Flatten walks a section forest depth-first and produces one record per
// section (self and all descendants) in pre-order: each section's record
// precedes all of its descendants' records, and siblings appear in document
// order.
//
// The operation is fail-fast: a single section with an invalid level or
// missing required fields aborts the whole document and no partial result
// is returned, because downstream storage and indexing assume every record
// in a batch is well-formed. An empty forest yields an empty result, not an
// error.
func Flatten(forest []*models.SectionNode, renderer Renderer) ([]models.FlattenedRecord, error) {
	if renderer == nil {
		return nil, fmt.Errorf("%w: no renderer provided", utils.ErrRendering)
	}

	var records []models.FlattenedRecord
	for _, node := range forest {
		if err := flattenNode(node, renderer, &records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// flattenNode emits the record for one section, then recurses into its
// children. Recursion depth is bounded by the validated level range.
func flattenNode(node *models.SectionNode, renderer Renderer, out *[]models.FlattenedRecord) error {
	if node == nil {
		return fmt.Errorf("%w: nil section node", utils.ErrMalformedTree)
	}
	if node.ID == "" {
		return fmt.Errorf("%w: section %q has no id", utils.ErrMalformedTree, node.Name)
	}
	if node.Name == "" {
		return fmt.Errorf("%w: section %q has no name", utils.ErrMalformedTree, node.ID)
	}
	if err := ValidateLevel(node.Level); err != nil {
		return fmt.Errorf("section %q: %w", node.ID, err)
	}

	// Render the section's own content only; blocks marking nested
	// sections are excluded so descendant text never leaks into the
	// parent's record.
	content := renderer.Render(ownedBlocks(node))

	chain := AncestorChain(node)
	levels, radio := AssembleFacets(node.Level, chain)

	*out = append(*out, models.FlattenedRecord{
		SectionID:       node.ID,
		Anchor:          node.ID,
		Name:            node.Name,
		Level:           node.Level,
		Content:         content,
		HierarchyLevels: levels,
		HierarchyRadio:  radio,
		TokenCount:      process.CountTokens(content),
	})

	for _, child := range node.Children {
		if err := flattenNode(child, renderer, out); err != nil {
			return err
		}
	}
	return nil
}

// ownedBlocks filters out nested-section markers, leaving only content the
// section owns directly.
func ownedBlocks(node *models.SectionNode) []models.Block {
	owned := make([]models.Block, 0, len(node.Blocks))
	for _, b := range node.Blocks {
		if !b.IsSection() {
			owned = append(owned, b)
		}
	}
	return owned
}
