package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"section-indexer/pkg/config"
	"section-indexer/pkg/index"
	"section-indexer/pkg/models"
	"section-indexer/pkg/render"
	"section-indexer/pkg/storage"
)

func newTestPipeline(t *testing.T, inputDir string, cfgMod func(*config.AppConfig)) (*Pipeline, *storage.BadgerStore, *index.SectionIndex) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := storage.NewBadgerStore(context.Background(), t.TempDir(), false, logger.WithField("component", "storage"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	idx, err := index.NewSectionIndex("", index.SplitConfig{}, logger.WithField("component", "index"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	cfg := &config.AppConfig{
		InputDir:   inputDir,
		NumWorkers: 2,
	}
	if cfgMod != nil {
		cfgMod(cfg)
	}

	p := NewPipeline(cfg, store, idx, render.NewPlainText(), logger.WithField("component", "pipeline"))
	return p, store, idx
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDocIDForPath(t *testing.T) {
	assert.Equal(t, "setup", DocIDForPath("setup.md"))
	assert.Equal(t, "guides-setup", DocIDForPath("guides/setup.md"))
	assert.Equal(t, "a-b-c", DocIDForPath("a/b/c.html"))
}

func TestRun_FlattensAllDocuments(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "guide.md", "# Guide\n\nIntro.\n\n## Install\n\nSteps.\n")
	writeDoc(t, inputDir, "nested/faq.md", "# FAQ\n\nAnswers.\n")

	p, store, idx := newTestPipeline(t, inputDir, nil)

	batch, err := p.Run(context.Background(), false)

	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, 2, batch.DocsProcessed)
	assert.Equal(t, 0, batch.DocsFailed)
	assert.Equal(t, 3, batch.RecordsEmitted)

	// Stored records keep pre-order
	records, err := store.ListRecords("guide")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "guide", records[0].SectionID)
	assert.Equal(t, "install", records[1].SectionID)
	assert.Equal(t, map[int]string{0: "Install"}, records[1].HierarchyLevels)

	// Doc status recorded
	status, entry, err := store.CheckDocStatus("nested-faq")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusSuccess, status)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.RecordCount)
	assert.Equal(t, filepath.Join("nested", "faq.md"), entry.SourcePath)
	assert.NotEmpty(t, entry.ContentHash)

	// Records are searchable
	hits, err := idx.Search("Answers", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "nested-faq", hits[0].DocID)
}

func TestRun_EmptyInputDir(t *testing.T) {
	p, _, _ := newTestPipeline(t, t.TempDir(), nil)

	batch, err := p.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 0, batch.DocsProcessed)
	assert.Equal(t, 0, batch.RecordsEmitted)
}

func TestRun_IgnoresUnsupportedFiles(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc.md", "# Doc\n\nText.\n")
	writeDoc(t, inputDir, "notes.txt", "not a document")

	p, _, _ := newTestPipeline(t, inputDir, nil)

	batch, err := p.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, batch.DocsProcessed)
}

func TestRun_IncrementalSkipsUnchanged(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc.md", "# Doc\n\nStable text.\n")

	p, _, _ := newTestPipeline(t, inputDir, nil)

	first, err := p.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocsProcessed)
	assert.Equal(t, 0, first.DocsSkipped)

	second, err := p.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DocsProcessed)
	assert.Equal(t, 1, second.DocsSkipped)

	// Changed content is reprocessed
	writeDoc(t, inputDir, "doc.md", "# Doc\n\nEdited text.\n")
	third, err := p.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, third.DocsProcessed)
	assert.Equal(t, 0, third.DocsSkipped)
}

func TestRun_NonIncrementalAlwaysReprocesses(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc.md", "# Doc\n\nText.\n")

	p, _, _ := newTestPipeline(t, inputDir, nil)

	_, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	batch, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.DocsProcessed)
	assert.Equal(t, 0, batch.DocsSkipped)
}

func TestRun_FailureRecordsStatus(t *testing.T) {
	inputDir := t.TempDir()
	// h8 is not a heading in markdown; build a failing document instead via
	// an HTML file whose selector never matches.
	writeDoc(t, inputDir, "broken.html", "<html><body><p>no main element</p></body></html>")

	p, store, _ := newTestPipeline(t, inputDir, func(c *config.AppConfig) {
		c.ContentSelector = "main"
	})

	batch, err := p.Run(context.Background(), false)

	require.Error(t, err)
	assert.Equal(t, 1, batch.DocsFailed)

	status, entry, errStatus := store.CheckDocStatus("broken")
	require.NoError(t, errStatus)
	assert.Equal(t, models.DocStatusFailure, status)
	require.NotNil(t, entry)
	assert.Contains(t, entry.ErrorType, "Content_Parsing")
}

func TestRun_ContinueOnError(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "bad.html", "<html><body><p>nope</p></body></html>")
	writeDoc(t, inputDir, "good.md", "# Good\n\nFine.\n")

	p, store, _ := newTestPipeline(t, inputDir, func(c *config.AppConfig) {
		c.ContentSelector = "main"
		c.ContinueOnError = true
	})

	batch, err := p.Run(context.Background(), false)

	require.NoError(t, err, "batch error is suppressed when continuing past failures")
	assert.Equal(t, 1, batch.DocsProcessed)
	assert.Equal(t, 1, batch.DocsFailed)

	status, _, errStatus := store.CheckDocStatus("good")
	require.NoError(t, errStatus)
	assert.Equal(t, models.DocStatusSuccess, status)
}

func TestProcessOne(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "single.md", "# Single\n\nText.\n\n## Sub\n\nMore.\n")

	p, store, _ := newTestPipeline(t, inputDir, nil)

	result := p.ProcessOne(context.Background(), "single.md", false)

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, "single", result.DocID)

	records, err := store.ListRecords("single")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRun_CancelledContext(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc.md", "# Doc\n\nText.\n")

	p, _, _ := newTestPipeline(t, inputDir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := p.Run(ctx, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, batch)
	assert.Equal(t, 1, batch.DocsFailed)
}
