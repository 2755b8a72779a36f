package pager

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Timestamped items can be merged across sources.
type Timestamped interface {
	Identifiable
	Timestamp() time.Time
}

// Entry is an item of a merged feed tagged with the source it came from.
type Entry struct {
	Type string
	Item Timestamped
}

// Key is unique across sources.
func (e Entry) Key() string { return e.Type + ":" + e.Item.Key() }

func (e Entry) Timestamp() time.Time { return e.Item.Timestamp() }

// Source is one feed taking part in a merge.
type Source struct {
	Type  string
	Fetch FetchFunc[Timestamped]
}

// NewSource wraps a typed FetchFunc, tagging its items with typ.
func NewSource[T Timestamped](typ string, fetch FetchFunc[T]) Source {
	return Source{
		Type: typ,
		Fetch: func(ctx context.Context, pageNumber, pageSize int) (Page[Timestamped], error) {
			page, err := fetch(ctx, pageNumber, pageSize)
			if err != nil {
				return Page[Timestamped]{}, err
			}
			items := make([]Timestamped, len(page.Items))
			for i, item := range page.Items {
				items[i] = item
			}
			return Page[Timestamped]{Items: items, TotalCount: page.TotalCount}, nil
		},
	}
}

// MergeFetch fetches the same page from every source in parallel and returns
// the union sorted newest first. Items with equal timestamps keep source
// order. The longest source drives paging: TotalCount is the largest total.
// Any source failing fails the whole page.
func MergeFetch(sources ...Source) FetchFunc[Entry] {
	return func(ctx context.Context, pageNumber, pageSize int) (Page[Entry], error) {
		results := make([]Page[Timestamped], len(sources))

		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			i, src := i, src
			g.Go(func() error {
				page, err := src.Fetch(gctx, pageNumber, pageSize)
				if err != nil {
					return err
				}
				results[i] = page
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Page[Entry]{}, err
		}

		var merged Page[Entry]
		for i, page := range results {
			for _, item := range page.Items {
				merged.Items = append(merged.Items, Entry{Type: sources[i].Type, Item: item})
			}
			if page.TotalCount > merged.TotalCount {
				merged.TotalCount = page.TotalCount
			}
		}
		sort.SliceStable(merged.Items, func(a, b int) bool {
			return merged.Items[a].Timestamp().After(merged.Items[b].Timestamp())
		})
		return merged, nil
	}
}
