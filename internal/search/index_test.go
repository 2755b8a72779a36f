package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/storage"
)

func seed() []*storage.HistoryEntry {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []*storage.HistoryEntry{
		{Kind: "recipe", ItemID: "r1", Title: "Tomato Soup", Author: "alice", Body: "Roast the tomatoes first", OpenedAt: opened},
		{Kind: "blog", ItemID: "b1", Title: "Sourdough diary", Author: "bob", Body: "Day three of feeding the starter", OpenedAt: opened},
		{Kind: "recipe", ItemID: "r2", Title: "Garlic bread", Author: "tomas", Body: "Butter and garlic", OpenedAt: opened},
	}
}

func TestHistoryIndexSearch(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	require.NoError(t, idx.Index(seed()...))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := idx.Search("soup", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "recipe:r1", res[0].Entry.ID)
	assert.Equal(t, "Tomato Soup", res[0].Entry.Title)
	assert.Equal(t, "recipe", res[0].Entry.Kind)
	assert.Equal(t, "r1", res[0].Entry.ItemID)

	res, err = idx.Search("sour", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res, "prefix match")
	assert.Equal(t, "blog:b1", res[0].Entry.ID)

	res, err = idx.Search("starter", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b1", res[0].Entry.ItemID)
}

func TestHistoryIndexTitleOutranksAuthor(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, idx.Index(seed()...))

	// "tom" prefixes the title "Tomato" and the author "tomas"
	res, err := idx.Search("tom", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "recipe:r1", res[0].Entry.ID)
}

func TestHistoryIndexShortQuery(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, idx.Index(seed()...))

	res, err := idx.Search("a", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestHistoryIndexReindexReplaces(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	entry := &storage.HistoryEntry{Kind: "recipe", ItemID: "r1", Title: "Old title"}
	require.NoError(t, idx.Index(entry))
	entry.Title = "Pumpkin pie"
	require.NoError(t, idx.Index(entry))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := idx.Search("pumpkin", 10)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	require.NoError(t, idx.Delete("recipe:r1"))
	n, _ = idx.DocCount()
	assert.Zero(t, n)
}

func TestHistoryIndexOnDiskRebuild(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, e := range seed() {
		require.NoError(t, store.SaveHistory(e))
	}

	idxPath := filepath.Join(dir, "history.bleve")
	idx, err := Open(idxPath)
	require.NoError(t, err)
	require.NoError(t, idx.Rebuild(store))
	require.NoError(t, idx.Close())

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	reopened, err := Open(idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	res, err := reopened.Search("garlic", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "recipe:r2", res[0].Entry.ID)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"tomato", "soup"}, tokenize("Tomato-Soup!"))
	assert.Equal(t, []string{"go", "42"}, tokenize("a go 42"))
	assert.Empty(t, tokenize("x"))
}
