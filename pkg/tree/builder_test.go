package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"section-indexer/pkg/models"
)

func TestBuildForest_Empty(t *testing.T) {
	forest := BuildForest([]byte(""))
	assert.Empty(t, forest)
}

func TestBuildForest_SingleSection(t *testing.T) {
	md := "# Overview\n\nSome intro text.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	node := forest[0]
	assert.Equal(t, "overview", node.ID)
	assert.Equal(t, "Overview", node.Name)
	assert.Equal(t, 0, node.Level)
	assert.Nil(t, node.Parent)
	require.Len(t, node.Blocks, 1)
	tb, ok := node.Blocks[0].(models.TextBlock)
	require.True(t, ok)
	assert.Equal(t, "Some intro text.", tb.Text)
}

func TestBuildForest_Nesting(t *testing.T) {
	md := `# Guide

Intro.

## Install

Step one.

## Configure

### Advanced

Deep detail.

# Appendix
`
	forest := BuildForest([]byte(md))

	require.Len(t, forest, 2)

	guide := forest[0]
	assert.Equal(t, "Guide", guide.Name)
	require.Len(t, guide.Children, 2)

	install := guide.Children[0]
	assert.Equal(t, "Install", install.Name)
	assert.Equal(t, 1, install.Level)
	assert.Same(t, guide, install.Parent)

	configure := guide.Children[1]
	require.Len(t, configure.Children, 1)
	advanced := configure.Children[0]
	assert.Equal(t, "Advanced", advanced.Name)
	assert.Equal(t, 2, advanced.Level)
	assert.Same(t, configure, advanced.Parent)

	assert.Equal(t, "Appendix", forest[1].Name)
	assert.Nil(t, forest[1].Parent)
}

func TestBuildForest_ChildMarkersInParentBlocks(t *testing.T) {
	md := "# Parent\n\nOwned text.\n\n## Child\n\nChild text.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	parent := forest[0]
	require.Len(t, parent.Blocks, 2)

	assert.False(t, parent.Blocks[0].IsSection())
	require.True(t, parent.Blocks[1].IsSection())
	ref, ok := parent.Blocks[1].(models.SectionRef)
	require.True(t, ok)
	assert.Equal(t, "Child", ref.Section.Name)
}

func TestBuildForest_LevelJump(t *testing.T) {
	// h1 -> h4 jump: the h4 node still records its nominal depth, its
	// parent is the innermost open section.
	md := "# Top\n\n#### Deep\n\nText.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	top := forest[0]
	require.Len(t, top.Children, 1)
	deep := top.Children[0]
	assert.Equal(t, 3, deep.Level)
	assert.Same(t, top, deep.Parent)
}

func TestBuildForest_SiblingClosesSection(t *testing.T) {
	md := "# A\n\n## A1\n\n## A2\n\n# B\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 2)
	a := forest[0]
	require.Len(t, a.Children, 2)
	assert.Equal(t, "A1", a.Children[0].Name)
	assert.Equal(t, "A2", a.Children[1].Name)
	assert.Same(t, a, a.Children[1].Parent, "A2 attaches to A, not to A1")
	assert.Empty(t, forest[1].Children)
}

func TestBuildForest_DuplicateHeadingsGetUniqueAnchors(t *testing.T) {
	md := "# Usage\n\n# Usage\n\n# Usage\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 3)
	assert.Equal(t, "usage", forest[0].ID)
	assert.Equal(t, "usage-2", forest[1].ID)
	assert.Equal(t, "usage-3", forest[2].ID)
}

func TestBuildForest_PreambleDropped(t *testing.T) {
	md := "Loose text before any heading.\n\n# First\n\nOwned.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Blocks, 1)
	tb := forest[0].Blocks[0].(models.TextBlock)
	assert.Equal(t, "Owned.", tb.Text)
}

func TestBuildForest_CodeBlockKeepsRawLines(t *testing.T) {
	md := "# Code\n\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Blocks, 1)
	tb := forest[0].Blocks[0].(models.TextBlock)
	assert.Equal(t, models.BlockCode, tb.Kind)
	assert.Contains(t, tb.Text, "func main() {")
	assert.Contains(t, tb.Text, `println("hi")`)
}

func TestBuildForest_ListBlock(t *testing.T) {
	md := "# Steps\n\n- first\n- second\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Blocks, 1)
	tb := forest[0].Blocks[0].(models.TextBlock)
	assert.Equal(t, models.BlockList, tb.Kind)
	assert.Contains(t, tb.Text, "first")
	assert.Contains(t, tb.Text, "second")
}

func TestBuildForest_ThematicBreakSkipped(t *testing.T) {
	md := "# Sec\n\nBefore.\n\n---\n\nAfter.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Blocks, 2)
}

func TestBuildForest_InlineMarkupInHeading(t *testing.T) {
	md := "# Using `flatten` *now*\n\nBody.\n"

	forest := BuildForest([]byte(md))

	require.Len(t, forest, 1)
	assert.Equal(t, "Using flatten now", forest[0].Name)
	assert.Equal(t, "using-flatten-now", forest[0].ID)
}
