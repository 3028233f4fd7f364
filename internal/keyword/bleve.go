package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/photostory/internal/models"
)

const defaultTagBoost = 2.0

// BleveIndex implements Index with an in-memory Bleve index.
// The index lives as long as the process, like the default chapter store.
type BleveIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewBleveIndex creates an empty in-memory index.
func NewBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "cats" and "cat" stay distinct
	// and tags match the words the analyzer produced.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("narrative", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)
	docMapping.AddFieldMappingsAt("connections", textFieldMapping)
	numberMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("chapter_number", numberMapping)
	im.AddDocumentMapping("chapter", docMapping)
	im.DefaultType = "chapter"
	im.DefaultMapping = docMapping
	return im
}

// Index adds or replaces chapter in the index.
func (b *BleveIndex) Index(ctx context.Context, chapter *models.Chapter) error {
	doc := map[string]interface{}{
		"narrative":      chapter.Narrative,
		"tags":           chapter.Tags,
		"connections":    chapter.Connections,
		"chapter_number": float64(chapter.ChapterNumber),
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Index(chapter.ID, doc)
}

// Search runs a match query over narrative, tags, and connections and returns up to limit hits,
// best first. Tag matches are boosted by opts.TagBoost.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	tagBoost := defaultTagBoost
	fuzziness := 0
	if opts != nil {
		if opts.TagBoost > 0 {
			tagBoost = opts.TagBoost
		}
		if opts.FuzzyEnabled {
			fuzziness = 1
			if opts.Fuzziness > 0 {
				fuzziness = opts.Fuzziness
			}
		}
	}

	q := bleve.NewDisjunctionQuery(
		fieldQuery(query, "narrative", 1.0, fuzziness),
		fieldQuery(query, "tags", tagBoost, fuzziness),
		fieldQuery(query, "connections", 1.0, fuzziness),
	)
	req := bleve.NewSearchRequest(q)
	if limit > 0 {
		req.Size = limit
	}

	b.mu.RLock()
	results, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func fieldQuery(query, field string, boost float64, fuzziness int) blevequery.Query {
	mq := bleve.NewMatchQuery(query)
	mq.SetField(field)
	mq.SetBoost(boost)
	if fuzziness > 0 {
		mq.SetFuzziness(fuzziness)
	}
	return mq
}

// Reset replaces the index with an empty one.
func (b *BleveIndex) Reset() error {
	fresh, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b.mu.Lock()
	old := b.index
	b.index = fresh
	b.mu.Unlock()
	return old.Close()
}

// DocCount returns the number of indexed chapters.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
