package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"section-indexer/pkg/utils"
)

// DefaultContentSelector is used when no selector is configured for HTML
// documents.
const DefaultContentSelector = "body"

// ReadDocument loads a source document and returns its content as markdown,
// ready for tree building. Markdown files pass through untouched; HTML files
// are converted via the configured content selector.
func ReadDocument(path, contentSelector string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading '%s': %w", utils.ErrFilesystem, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return raw, nil
	case ".html", ".htm":
		return ConvertHTML(raw, contentSelector)
	default:
		return nil, fmt.Errorf("%w: unsupported document type '%s'", utils.ErrParsing, filepath.Ext(path))
	}
}

// IsSupported reports whether a file extension is a known document type.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// ConvertHTML extracts the main content of an HTML document and converts it
// to markdown so HTML-authored docs flow through the same section tree
// builder as native markdown.
func ConvertHTML(htmlContent []byte, contentSelector string) ([]byte, error) {
	if contentSelector == "" {
		contentSelector = DefaultContentSelector
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %w", utils.ErrParsing, err)
	}

	selection := doc.Find(contentSelector)
	if selection.Length() == 0 {
		return nil, fmt.Errorf("%w: content selector '%s' not found in HTML document", utils.ErrParsing, contentSelector)
	}

	contentHTML, err := selection.First().Html()
	if err != nil {
		return nil, fmt.Errorf("%w: extracting HTML content: %w", utils.ErrParsing, err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(contentHTML)
	if err != nil {
		return nil, fmt.Errorf("%w: converting HTML to markdown: %w", utils.ErrParsing, err)
	}
	return []byte(strings.TrimSpace(markdown)), nil
}
