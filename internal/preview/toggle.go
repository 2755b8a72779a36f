package preview

import (
	"context"
)

// ToggleLike flips the like flag and count before the request is sent and
// restores both if it fails.
func (p *Preview) ToggleLike(ctx context.Context) error {
	return p.toggle(ctx, fieldLiked,
		func(st *State) {
			st.Liked = !st.Liked
			if st.Liked {
				st.LikeCount++
			} else if st.LikeCount > 0 {
				st.LikeCount--
			}
		},
		func(st *State, prev State) {
			st.Liked = prev.Liked
			st.LikeCount = prev.LikeCount
		},
		func(ctx context.Context, prev State) error {
			return p.svc.backend.ToggleLike(ctx, prev.Kind, prev.ID)
		},
	)
}

func (p *Preview) ToggleBookmark(ctx context.Context) error {
	return p.toggle(ctx, fieldBookmarked,
		func(st *State) { st.Bookmarked = !st.Bookmarked },
		func(st *State, prev State) { st.Bookmarked = prev.Bookmarked },
		func(ctx context.Context, prev State) error {
			return p.svc.backend.ToggleBookmark(ctx, prev.Kind, prev.ID)
		},
	)
}

// ToggleFollow follows or unfollows the preview's follow target.
func (p *Preview) ToggleFollow(ctx context.Context) error {
	viewer := p.svc.auth.Viewer()
	if !viewer.Anonymous() && p.Snapshot().FollowTarget() == viewer.ID {
		return ErrSelfFollow
	}
	return p.toggle(ctx, fieldFollowing,
		func(st *State) { st.Following = !st.Following },
		func(st *State, prev State) { st.Following = prev.Following },
		func(ctx context.Context, prev State) error {
			if prev.Following {
				return p.svc.backend.Unfollow(ctx, prev.FollowTarget())
			}
			return p.svc.backend.Follow(ctx, prev.FollowTarget())
		},
	)
}

func (p *Preview) toggle(
	ctx context.Context,
	field string,
	flip func(st *State),
	restore func(st *State, prev State),
	call func(ctx context.Context, prev State) error,
) error {
	viewer := p.svc.auth.Viewer()
	if viewer.Anonymous() {
		p.svc.promptLogin()
		return ErrLoginRequired
	}

	p.mu.Lock()
	if p.busy[field] {
		p.mu.Unlock()
		return ErrBusy
	}
	p.busy[field] = true
	prev := p.st
	flip(&p.st)
	item := p.item
	p.mu.Unlock()

	err := call(ctx, prev)

	p.mu.Lock()
	if item == p.item {
		delete(p.busy, field)
		if err != nil {
			restore(&p.st, prev)
		}
	}
	p.mu.Unlock()

	c := p.svc.cache
	switch field {
	case fieldLiked:
		c.remove(flagKey(prev, viewer, field), cacheKey(prev.Kind, prev.ID, fieldLikeCount))
	default:
		c.remove(flagKey(prev, viewer, field))
	}

	if err != nil {
		p.logger(prev).Warnf("%s toggle failed, reverted: %v", field, err)
		return err
	}
	return nil
}
