package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	historyBucket = []byte("history")
	draftsBucket  = []byte("drafts")
)

// ErrNotFound is returned when a key is absent.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{sessionBucket, historyBucket, draftsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutSession(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), value)
	})
}

// GetSession returns a copy of the value, or ErrNotFound.
func (s *Store) GetSession(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

func (s *Store) DeleteSession(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
}

// SaveHistory records an opened item. OpenedAt defaults to now.
func (s *Store) SaveHistory(entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = HistoryID(entry.Kind, entry.ItemID)
	}
	if entry.OpenedAt.IsZero() {
		entry.OpenedAt = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return tx.Bucket(historyBucket).Put([]byte(entry.ID), data)
	})
}

// GetHistory returns entries newest first; limit <= 0 returns all.
func (s *Store) GetHistory(limit int) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(_ []byte, v []byte) error {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OpenedAt.After(entries[j].OpenedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, err
}

func (s *Store) ClearHistory() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(historyBucket)
		return err
	})
}

// SaveDraft stores draft, assigning an ID when it has none.
func (s *Store) SaveDraft(draft *Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	draft.UpdatedAt = time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(draft)
		if err != nil {
			return err
		}
		return tx.Bucket(draftsBucket).Put([]byte(draft.ID), data)
	})
}

func (s *Store) GetDraft(id string) (*Draft, error) {
	var draft Draft
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(draftsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("draft %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &draft)
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *Store) DeleteDraft(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).Delete([]byte(id))
	})
}

// ListDrafts returns drafts, most recently updated first.
func (s *Store) ListDrafts() ([]*Draft, error) {
	var drafts []*Draft
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).ForEach(func(_ []byte, v []byte) error {
			var draft Draft
			if err := json.Unmarshal(v, &draft); err != nil {
				return err
			}
			drafts = append(drafts, &draft)
			return nil
		})
	})
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, err
}
