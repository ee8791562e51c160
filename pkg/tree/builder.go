package tree

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"section-indexer/pkg/models"
	"section-indexer/pkg/utils"
)

// BuildForest parses markdown content and assembles the section forest:
// headings open sections, non-heading blocks attach to the section that
// owns them. Heading depth maps to section level (h1 = 0). Content before
// the first heading belongs to no section and is dropped.
func BuildForest(markdown []byte) []*models.SectionNode {
	reader := text.NewReader(markdown)
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var forest []*models.SectionNode
	var open []*models.SectionNode // Stack of currently open sections, outermost first
	slugs := make(map[string]int)  // Slug -> occurrence count for anchor dedupe

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if heading, ok := child.(*ast.Heading); ok {
			level := heading.Level - 1
			name := inlineText(heading, markdown)

			// Close sections at the same or deeper level.
			for len(open) > 0 && open[len(open)-1].Level >= level {
				open = open[:len(open)-1]
			}

			node := &models.SectionNode{
				ID:    anchorFor(name, slugs),
				Name:  name,
				Level: level,
			}
			if len(open) > 0 {
				parent := open[len(open)-1]
				node.Parent = parent
				parent.Children = append(parent.Children, node)
				parent.Blocks = append(parent.Blocks, models.SectionRef{Section: node})
			} else {
				forest = append(forest, node)
			}
			open = append(open, node)
			continue
		}

		// Non-heading block: attach to the innermost open section.
		if len(open) == 0 {
			continue
		}
		block, ok := contentBlock(child, markdown)
		if !ok {
			continue
		}
		current := open[len(open)-1]
		current.Blocks = append(current.Blocks, block)
	}

	return forest
}

// anchorFor derives a unique anchor slug for a section title within one
// document, suffixing repeats with -2, -3, ...
func anchorFor(name string, seen map[string]int) string {
	slug := utils.Slugify(name)
	seen[slug]++
	if n := seen[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}

// contentBlock converts a top-level goldmark AST node into an owned content
// block. Returns false for nodes with nothing to carry (thematic breaks,
// empty paragraphs).
func contentBlock(n ast.Node, source []byte) (models.Block, bool) {
	var kind models.BlockKind
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		kind = models.BlockParagraph
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		kind = models.BlockCode
	case *ast.List:
		kind = models.BlockList
	case *ast.Blockquote:
		kind = models.BlockQuote
	case *ast.HTMLBlock:
		kind = models.BlockHTML
	case *ast.ThematicBreak:
		return nil, false
	default:
		kind = models.BlockParagraph
	}

	text := blockText(n, source)
	if text == "" {
		return nil, false
	}
	return models.TextBlock{Kind: kind, Text: text}, true
}

// blockText extracts the readable text of a block node. Code blocks keep
// their raw lines; everything else collects inline text segments.
func blockText(n ast.Node, source []byte) string {
	switch code := n.(type) {
	case *ast.FencedCodeBlock:
		return rawLines(code, source)
	case *ast.CodeBlock:
		return rawLines(code, source)
	}

	var buf bytes.Buffer
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.ListItem:
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return string(bytes.TrimSpace(buf.Bytes()))
}

// inlineText collects the inline text of a heading.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return string(bytes.TrimSpace(buf.Bytes()))
}

// rawLines concatenates the source lines of a code block.
func rawLines(n interface{ Lines() *text.Segments }, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
