package pager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/api"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestMergeFetchSortsNewestFirst(t *testing.T) {
	recipesDone := make(chan struct{})
	recipes := func(ctx context.Context, pageNumber, pageSize int) (Page[api.Recipe], error) {
		defer close(recipesDone)
		return Page[api.Recipe]{Items: []api.Recipe{{ID: "r1", CreatedDate: day(2)}}, TotalCount: 12}, nil
	}
	// blogs complete after recipes; order must not depend on completion
	blogs := func(ctx context.Context, pageNumber, pageSize int) (Page[api.Blog], error) {
		<-recipesDone
		return Page[api.Blog]{Items: []api.Blog{{ID: "b1", CreatedDate: day(3)}}, TotalCount: 20}, nil
	}

	fetch := MergeFetch(NewSource("recipe", recipes), NewSource("blog", blogs))
	page, err := fetch(context.Background(), 1, 8)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "blog", page.Items[0].Type)
	assert.Equal(t, "b1", page.Items[0].Item.Key())
	assert.Equal(t, "recipe", page.Items[1].Type)
	assert.Equal(t, 20, page.TotalCount)
}

func TestMergeFetchStableForEqualTimestamps(t *testing.T) {
	recipes := func(context.Context, int, int) (Page[api.Recipe], error) {
		return Page[api.Recipe]{Items: []api.Recipe{{ID: "x", CreatedDate: day(1)}}}, nil
	}
	blogs := func(context.Context, int, int) (Page[api.Blog], error) {
		return Page[api.Blog]{Items: []api.Blog{{ID: "x", CreatedDate: day(1)}}}, nil
	}

	page, err := MergeFetch(NewSource("recipe", recipes), NewSource("blog", blogs))(context.Background(), 1, 8)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "recipe:x", page.Items[0].Key())
	assert.Equal(t, "blog:x", page.Items[1].Key())
}

func TestMergeFetchFailsWhenAnySourceFails(t *testing.T) {
	recipes := func(context.Context, int, int) (Page[api.Recipe], error) {
		return Page[api.Recipe]{Items: []api.Recipe{{ID: "r1"}}, TotalCount: 1}, nil
	}
	blogs := func(context.Context, int, int) (Page[api.Blog], error) {
		return Page[api.Blog]{}, errors.New("boom")
	}

	_, err := MergeFetch(NewSource("recipe", recipes), NewSource("blog", blogs))(context.Background(), 1, 8)
	assert.EqualError(t, err, "boom")
}

func TestMergedPager(t *testing.T) {
	recipes := func(_ context.Context, pageNumber, _ int) (Page[api.Recipe], error) {
		if pageNumber > 1 {
			return Page[api.Recipe]{TotalCount: 1}, nil
		}
		return Page[api.Recipe]{Items: []api.Recipe{{ID: "r1", CreatedDate: day(5)}}, TotalCount: 1}, nil
	}
	blogs := func(_ context.Context, pageNumber, _ int) (Page[api.Blog], error) {
		return Page[api.Blog]{Items: []api.Blog{{ID: "b" + string(rune('0'+pageNumber)), CreatedDate: day(pageNumber)}}, TotalCount: 2}, nil
	}

	p := New(MergeFetch(NewSource("recipe", recipes), NewSource("blog", blogs)), 1)
	ctx := context.Background()
	require.NoError(t, p.LoadInitial(ctx))
	assert.Equal(t, 2, p.Snapshot().TotalPages)

	fetched, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)

	var keys []string
	for _, e := range p.Snapshot().Items {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{"recipe:r1", "blog:b1", "blog:b2"}, keys)
	assert.False(t, p.HasMore())
}

func TestNearBottom(t *testing.T) {
	tests := []struct {
		name                               string
		offset, viewport, total, threshold int
		want                               bool
	}{
		{"top of long list", 0, 10, 100, 3, false},
		{"within threshold", 88, 10, 100, 3, true},
		{"exactly at edge", 87, 10, 100, 3, true},
		{"just outside", 86, 10, 100, 3, false},
		{"short list", 0, 10, 5, 3, true},
		{"negative threshold", 90, 10, 100, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearBottom(tt.offset, tt.viewport, tt.total, tt.threshold))
		})
	}
}
