package index

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/textsplitter"

	"section-indexer/pkg/models"
	"section-indexer/pkg/process"
	"section-indexer/pkg/utils"
)

// SplitConfig controls sub-splitting of oversized section content before
// indexing. Sections whose token count exceeds MaxTokens are indexed as
// multiple sub-entries keyed "<sectionID>#<n>" so search hits stay anchored
// to their section. Zero MaxTokens disables splitting.
type SplitConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// SectionIndex maintains a bleve full-text index over flattened section
// records.
type SectionIndex struct {
	idx   bleve.Index
	split SplitConfig
	log   *logrus.Entry
}

// sectionDoc is the shape indexed per record (or per sub-split).
type sectionDoc struct {
	DocID     string   `json:"doc_id"`
	SectionID string   `json:"section_id"`
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Content   string   `json:"content"`
	Hierarchy []string `json:"hierarchy"`
	Radio     string   `json:"hierarchy_radio"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID        string  `json:"id"`
	DocID     string  `json:"doc_id"`
	SectionID string  `json:"section_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

// NewSectionIndex opens (or creates) a bleve index at path. An empty path
// yields an in-memory index, useful for tests and the MCP server's ad-hoc
// mode.
func NewSectionIndex(path string, split SplitConfig, logger *logrus.Entry) (*SectionIndex, error) {
	mapping := bleve.NewIndexMapping()

	// doc_id and section_id are exact-match fields, not analyzed text
	docMapping := bleve.NewDocumentMapping()
	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("doc_id", idField)
	docMapping.AddFieldMappingsAt("section_id", idField)
	mapping.DefaultMapping = docMapping

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		idx, err = bleve.New(path, mapping)
	} else {
		idx, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening section index at '%s': %w", utils.ErrIndexing, path, err)
	}

	return &SectionIndex{idx: idx, split: split, log: logger}, nil
}

// IndexRecords indexes a document's record batch, replacing any previously
// indexed entries for the same document.
func (s *SectionIndex) IndexRecords(docID string, records []models.FlattenedRecord) error {
	batch := s.idx.NewBatch()

	// Drop stale entries so re-flattened documents don't leave orphans
	stale, err := s.entriesForDoc(docID)
	if err != nil {
		return err
	}
	for _, id := range stale {
		batch.Delete(id)
	}

	indexed := 0
	for _, rec := range records {
		hierarchy := make([]string, 0, len(rec.HierarchyLevels))
		for i := models.MinLevel; i <= models.MaxLevel; i++ {
			if name, ok := rec.HierarchyLevels[i]; ok {
				hierarchy = append(hierarchy, name)
			}
		}

		for i, content := range s.splitContent(rec) {
			entryID := docID + "/" + rec.SectionID
			if i > 0 {
				entryID = fmt.Sprintf("%s#%d", entryID, i)
			}
			doc := sectionDoc{
				DocID:     docID,
				SectionID: rec.SectionID,
				Name:      rec.Name,
				Level:     rec.Level,
				Content:   content,
				Hierarchy: hierarchy,
				Radio:     rec.HierarchyRadio,
			}
			if err := batch.Index(entryID, doc); err != nil {
				return fmt.Errorf("%w: batching entry '%s': %w", utils.ErrIndexing, entryID, err)
			}
			indexed++
		}
	}

	if err := s.idx.Batch(batch); err != nil {
		return fmt.Errorf("%w: indexing %d entries for doc '%s': %w", utils.ErrIndexing, indexed, docID, err)
	}
	s.log.Debugf("Indexed %d entries for doc '%s' (removed %d stale)", indexed, docID, len(stale))
	return nil
}

// splitContent returns the content pieces to index for one record. Most
// records index as a single piece; oversized content is sub-split with a
// recursive character splitter using token-aware lengths.
func (s *SectionIndex) splitContent(rec models.FlattenedRecord) []string {
	if s.split.MaxTokens <= 0 || rec.TokenCount < 0 || rec.TokenCount <= s.split.MaxTokens {
		return []string{rec.Content}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.split.MaxTokens),
		textsplitter.WithChunkOverlap(s.split.OverlapTokens),
		textsplitter.WithLenFunc(func(t string) int {
			if n := process.CountTokens(t); n >= 0 {
				return n
			}
			return len(t)
		}),
	)
	parts, err := splitter.SplitText(rec.Content)
	if err != nil || len(parts) == 0 {
		s.log.Warnf("Sub-splitting section '%s' failed, indexing whole: %v", rec.SectionID, err)
		return []string{rec.Content}
	}
	return parts
}

// entriesForDoc returns the ids of all index entries belonging to a document.
func (s *SectionIndex) entriesForDoc(docID string) ([]string, error) {
	query := bleve.NewTermQuery(docID)
	query.SetField("doc_id")
	req := bleve.NewSearchRequestOptions(query, 10000, 0, false)
	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: finding entries for doc '%s': %w", utils.ErrIndexing, docID, err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Search runs a query-string search over the index and returns scored hits.
func (s *SectionIndex) Search(queryStr string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	query := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Fields = []string{"doc_id", "section_id", "name"}

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: searching for '%s': %w", utils.ErrIndexing, queryStr, err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["doc_id"].(string); ok {
			h.DocID = v
		}
		if v, ok := hit.Fields["section_id"].(string); ok {
			h.SectionID = v
		}
		if v, ok := hit.Fields["name"].(string); ok {
			h.Name = v
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// DocCount returns the number of entries in the index.
func (s *SectionIndex) DocCount() (uint64, error) {
	return s.idx.DocCount()
}

// Close releases the underlying index.
func (s *SectionIndex) Close() error {
	return s.idx.Close()
}
