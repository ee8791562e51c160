package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"section-indexer/pkg/utils"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("doc.md"))
	assert.True(t, IsSupported("doc.markdown"))
	assert.True(t, IsSupported("page.HTML"))
	assert.True(t, IsSupported("page.htm"))
	assert.False(t, IsSupported("notes.txt"))
	assert.False(t, IsSupported("archive.pdf"))
	assert.False(t, IsSupported("no-extension"))
}

func TestReadDocument_MarkdownPassthrough(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doc.md")
	content := "# Title\n\nBody.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadDocument(path, "")

	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestReadDocument_HTMLConversion(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "page.html")
	html := `<html><body><main><h1>Title</h1><p>Some text.</p></main></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0644))

	got, err := ReadDocument(path, "main")

	require.NoError(t, err)
	assert.Contains(t, string(got), "# Title")
	assert.Contains(t, string(got), "Some text.")
}

func TestReadDocument_MissingFile(t *testing.T) {
	_, err := ReadDocument("/nonexistent/doc.md", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrFilesystem)
}

func TestReadDocument_UnsupportedType(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	_, err := ReadDocument(path, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrParsing)
}

func TestConvertHTML_DefaultSelector(t *testing.T) {
	html := `<html><body><h2>Section</h2><p>Text.</p></body></html>`

	got, err := ConvertHTML([]byte(html), "")

	require.NoError(t, err)
	assert.Contains(t, string(got), "## Section")
}

func TestConvertHTML_SelectorNotFound(t *testing.T) {
	html := `<html><body><p>Text.</p></body></html>`

	_, err := ConvertHTML([]byte(html), "article.docs")

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrParsing)
	assert.Contains(t, err.Error(), "article.docs")
}
