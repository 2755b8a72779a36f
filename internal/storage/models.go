package storage

import (
	"time"
)

// HistoryEntry is an item the user opened in the reader.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Author   string    `json:"author"`
	OpenedAt time.Time `json:"opened_at"`
}

// HistoryID is the key of an item in the history bucket; reopening an item
// overwrites its entry.
func HistoryID(kind, itemID string) string {
	return kind + ":" + itemID
}

// Draft is an unsent compose form.
type Draft struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	EditingID string            `json:"editing_id,omitempty"`
	Fields    map[string]string `json:"fields"`
	LastError string            `json:"last_error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
