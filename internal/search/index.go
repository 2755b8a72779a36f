// Package search indexes the items a user has opened so they can be found
// again offline. Server-side search lives in the api package.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/crumb/internal/storage"
)

// HistoryIndex is a bleve index over history entries.
type HistoryIndex struct {
	idx bleve.Index
}

// Open opens or creates the index at indexPath. An empty path keeps the
// index in memory.
func Open(indexPath string) (*HistoryIndex, error) {
	if indexPath == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &HistoryIndex{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}
	return &HistoryIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false

	kind := bleve.NewTextFieldMapping()
	kind.Analyzer = keyword.Name
	kind.Store = true

	itemID := bleve.NewTextFieldMapping()
	itemID.Analyzer = keyword.Name
	itemID.Store = true
	itemID.Index = false

	opened := bleve.NewDateTimeFieldMapping()
	opened.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("body", body)
	dm.AddFieldMappingsAt("type", kind)
	dm.AddFieldMappingsAt("item_id", itemID)
	dm.AddFieldMappingsAt("opened_at", opened)

	im.DefaultMapping = dm
	return im
}

func document(e *storage.HistoryEntry) map[string]any {
	return map[string]any{
		"title":     e.Title,
		"author":    e.Author,
		"body":      e.Body,
		"type":      e.Kind,
		"item_id":   e.ItemID,
		"opened_at": e.OpenedAt,
	}
}

// Index adds or replaces entries.
func (h *HistoryIndex) Index(entries ...*storage.HistoryEntry) error {
	batch := h.idx.NewBatch()
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = storage.HistoryID(e.Kind, e.ItemID)
		}
		if err := batch.Index(id, document(e)); err != nil {
			return fmt.Errorf("indexing %s: %w", id, err)
		}
	}
	return h.idx.Batch(batch)
}

// Rebuild indexes every entry from src.
func (h *HistoryIndex) Rebuild(src HistorySource) error {
	entries, err := src.GetHistory(0)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	return h.Index(entries...)
}

// Search matches each query term against title, author and body, exact
// and as a prefix, with title weighted highest. Queries shorter than two
// characters return nothing.
func (h *HistoryIndex) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	boosts := []struct {
		field        string
		match, prefx float64
	}{
		{"title", 4.0, 3.5},
		{"author", 2.0, 1.8},
		{"body", 1.0, 0.8},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, b := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(b.field)
			mq.SetBoost(b.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(b.field)
			pq.SetBoost(b.prefx)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "author", "type", "item_id", "opened_at"}
	res, err := h.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		e := &storage.HistoryEntry{ID: hit.ID}
		if v, ok := hit.Fields["title"].(string); ok {
			e.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			e.Author = v
		}
		if v, ok := hit.Fields["type"].(string); ok {
			e.Kind = v
		}
		if v, ok := hit.Fields["item_id"].(string); ok {
			e.ItemID = v
		}
		if v, ok := hit.Fields["opened_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				e.OpenedAt = t
			}
		}
		out = append(out, &Result{Entry: e, Score: hit.Score})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (h *HistoryIndex) DocCount() (int, error) {
	n, err := h.idx.DocCount()
	return int(n), err
}

func (h *HistoryIndex) Delete(id string) error {
	return h.idx.Delete(id)
}

func (h *HistoryIndex) Close() error {
	return h.idx.Close()
}

// tokenize lowercases text and splits it on non-alphanumerics, dropping
// single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}
