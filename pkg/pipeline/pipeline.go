package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"section-indexer/pkg/config"
	"section-indexer/pkg/flatten"
	"section-indexer/pkg/index"
	"section-indexer/pkg/ingest"
	"section-indexer/pkg/models"
	"section-indexer/pkg/storage"
	"section-indexer/pkg/tree"
	"section-indexer/pkg/utils"
)

// DocResult contains the result of flattening a single document
type DocResult struct {
	DocID      string
	SourcePath string
	Success    bool
	Skipped    bool // Unchanged content in incremental mode
	Records    int
	Error      error
	Duration   time.Duration
}

// BatchResult summarizes one pipeline run
type BatchResult struct {
	BatchID        string
	DocsProcessed  int
	DocsFailed     int
	DocsSkipped    int
	RecordsEmitted int
	Duration       time.Duration
	Results        []DocResult
}

// Pipeline runs the ingest -> tree -> flatten -> store -> index chain over a
// directory of source documents. Documents are independent, so the batch
// fans out across workers; each document's flatten remains all-or-nothing.
type Pipeline struct {
	appCfg   *config.AppConfig
	store    storage.Store
	idx      *index.SectionIndex
	renderer flatten.Renderer
	log      *logrus.Entry

	resultsMu sync.Mutex
	results   []DocResult
}

// NewPipeline creates a pipeline over the given store and index. The index
// may be nil when only relational storage is wanted.
func NewPipeline(appCfg *config.AppConfig, store storage.Store, idx *index.SectionIndex, renderer flatten.Renderer, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		appCfg:   appCfg,
		store:    store,
		idx:      idx,
		renderer: renderer,
		log:      log,
	}
}

// Run discovers source documents under the configured input directory and
// processes them with bounded parallelism. With ContinueOnError unset, the
// first document failure cancels the remaining work.
func (p *Pipeline) Run(ctx context.Context, incremental bool) (*BatchResult, error) {
	startTime := time.Now()
	batchID := uuid.New().String()
	batchLog := p.log.WithField("batch_id", batchID)

	docs, err := p.discoverDocuments()
	if err != nil {
		return nil, err
	}
	batchLog.Infof("Starting batch over %d documents (workers: %d, incremental: %v)",
		len(docs), p.appCfg.NumWorkers, incremental)

	p.resultsMu.Lock()
	p.results = make([]DocResult, 0, len(docs))
	p.resultsMu.Unlock()

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.appCfg.NumWorkers)

	for _, relPath := range docs {
		g.Go(func() error {
			result := p.processDocument(groupCtx, relPath, incremental)

			p.resultsMu.Lock()
			p.results = append(p.results, result)
			p.resultsMu.Unlock()

			if result.Error != nil && !p.appCfg.ContinueOnError {
				return fmt.Errorf("document '%s': %w", result.DocID, result.Error)
			}
			return nil
		})
	}

	groupErr := g.Wait()

	batch := p.summarize(batchID, time.Since(startTime))
	p.logSummary(batchLog, batch)

	if groupErr != nil {
		return batch, groupErr
	}
	return batch, nil
}

// ProcessOne runs a single document through the pipeline by its path
// relative to the input directory. Used by the MCP flatten_document tool.
func (p *Pipeline) ProcessOne(ctx context.Context, relPath string, incremental bool) DocResult {
	return p.processDocument(ctx, relPath, incremental)
}

// discoverDocuments walks the input directory collecting supported files,
// in deterministic (lexical walk) order.
func (p *Pipeline) discoverDocuments() ([]string, error) {
	var docs []string
	root := p.appCfg.InputDir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ingest.IsSupported(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		docs = append(docs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning input directory '%s': %w", utils.ErrFilesystem, root, err)
	}
	return docs, nil
}

// DocIDForPath derives the stable document id for a source path relative to
// the input directory ("guides/setup.md" -> "guides-setup").
func DocIDForPath(relPath string) string {
	noExt := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	flat := strings.ReplaceAll(filepath.ToSlash(noExt), "/", "-")
	return utils.SanitizeFilename(flat)
}

// processDocument runs one document through ingest, tree building,
// flattening, storage, and indexing. Any failure aborts the whole document:
// no partial records are stored or indexed.
func (p *Pipeline) processDocument(ctx context.Context, relPath string, incremental bool) DocResult {
	startTime := time.Now()
	docID := DocIDForPath(relPath)
	result := DocResult{DocID: docID, SourcePath: relPath}
	docLog := p.log.WithFields(logrus.Fields{"doc_id": docID, "source": relPath})

	if p.appCfg.PerDocTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.appCfg.PerDocTimeout)
		defer cancel()
	}

	fail := func(err error) DocResult {
		result.Error = err
		result.Duration = time.Since(startTime)
		docLog.Errorf("Document processing failed: %v", err)
		entry := &models.DocDBEntry{
			Status:      models.DocStatusFailure,
			ErrorType:   utils.CategorizeError(err),
			SourcePath:  relPath,
			LastAttempt: time.Now(),
		}
		if dbErr := p.store.UpdateDocStatus(docID, entry); dbErr != nil {
			docLog.Errorf("Failed to record failure status: %v", dbErr)
		}
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	fullPath := filepath.Join(p.appCfg.InputDir, relPath)
	markdown, err := ingest.ReadDocument(fullPath, p.appCfg.ContentSelector)
	if err != nil {
		return fail(err)
	}

	contentHash := utils.CalculateStringSHA256(string(markdown))

	// Incremental mode: skip documents whose content is unchanged since the
	// last successful run
	if incremental {
		status, entry, _ := p.store.CheckDocStatus(docID)
		if status == models.DocStatusSuccess && entry != nil && entry.ContentHash == contentHash {
			docLog.Debug("Content unchanged, skipping")
			result.Success = true
			result.Skipped = true
			result.Records = entry.RecordCount
			result.Duration = time.Since(startTime)
			return result
		}
	}

	forest := tree.BuildForest(markdown)
	records, err := flatten.Flatten(forest, p.renderer)
	if err != nil {
		return fail(err)
	}

	if err := p.store.PutRecords(docID, records); err != nil {
		return fail(err)
	}
	if p.idx != nil {
		if err := p.idx.IndexRecords(docID, records); err != nil {
			return fail(err)
		}
	}

	now := time.Now()
	entry := &models.DocDBEntry{
		Status:      models.DocStatusSuccess,
		RecordCount: len(records),
		ContentHash: contentHash,
		SourcePath:  relPath,
		ProcessedAt: now,
		LastAttempt: now,
	}
	if err := p.store.UpdateDocStatus(docID, entry); err != nil {
		return fail(err)
	}

	result.Success = true
	result.Records = len(records)
	result.Duration = time.Since(startTime)
	docLog.Infof("Flattened %d sections in %v", len(records), result.Duration)
	return result
}

// summarize folds per-document results into the batch summary.
func (p *Pipeline) summarize(batchID string, duration time.Duration) *BatchResult {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	batch := &BatchResult{
		BatchID:  batchID,
		Duration: duration,
		Results:  append([]DocResult(nil), p.results...),
	}
	for _, r := range p.results {
		switch {
		case r.Skipped:
			batch.DocsSkipped++
		case r.Success:
			batch.DocsProcessed++
			batch.RecordsEmitted += r.Records
		default:
			batch.DocsFailed++
		}
	}
	return batch
}

// logSummary logs a summary of the batch run
func (p *Pipeline) logSummary(log *logrus.Entry, batch *BatchResult) {
	log.Info("============================================")
	log.Infof("Batch completed in %v", batch.Duration)
	log.Infof("Documents: %d processed, %d skipped, %d failed",
		batch.DocsProcessed, batch.DocsSkipped, batch.DocsFailed)
	log.Infof("Records emitted: %d", batch.RecordsEmitted)
	for _, r := range batch.Results {
		if r.Error != nil {
			log.Infof("  %s: FAILED - %v", r.DocID, r.Error)
		}
	}
	log.Info("============================================")
}
