package search

import "github.com/pders01/crumb/internal/storage"

// Searcher is the history search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
	Index(entries ...*storage.HistoryEntry) error
}

// DebugStatser reports index size for the status bar.
type DebugStatser interface {
	DocCount() (int, error)
}

// HistorySource supplies entries for a full reindex. *storage.Store
// implements it.
type HistorySource interface {
	GetHistory(limit int) ([]*storage.HistoryEntry, error)
}

// Result is a history entry matching a query.
type Result struct {
	Entry *storage.HistoryEntry
	Score float64
}
