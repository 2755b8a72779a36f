// Package preview holds the per-item state behind a feed row: image, like
// and comment counts, and the viewer's like/bookmark/follow flags with
// optimistic toggles.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/media"
	"github.com/pders01/crumb/internal/session"
)

var (
	// ErrLoginRequired is returned by toggles while logged out; the login
	// prompt has been shown instead.
	ErrLoginRequired = errors.New("login required")
	// ErrBusy is returned when the same toggle is already in flight.
	ErrBusy = errors.New("toggle already in progress")
	// ErrSelfFollow is returned when following yourself.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrDiscarded is returned when the preview was released or pointed at
	// another item while loading.
	ErrDiscarded = errors.New("preview result discarded")
)

// Backend is the part of the REST client previews use. *api.Client
// implements it.
type Backend interface {
	Banner(ctx context.Context, kind api.Kind, id string) (api.Image, error)
	ProfilePicture(ctx context.Context, userID string) (api.Image, error)
	IsLiked(ctx context.Context, kind api.Kind, id string) (bool, error)
	IsBookmarked(ctx context.Context, kind api.Kind, id string) (bool, error)
	LikeCount(ctx context.Context, kind api.Kind, id string) (int, error)
	Comments(ctx context.Context, kind api.Kind, id string, page api.PageRequest) (api.ListResponse[api.Comment], error)
	EventParticipants(ctx context.Context, eventID string, page api.PageRequest) (api.ListResponse[api.User], error)
	ToggleLike(ctx context.Context, kind api.Kind, id string) error
	ToggleBookmark(ctx context.Context, kind api.Kind, id string) error
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	IsFollowing(ctx context.Context, userID string) (bool, error)
}

// Auth reports who is signed in. *session.Session implements it.
type Auth interface {
	Viewer() session.Viewer
}

// Blobs stores fetched images. *media.BlobStore implements it.
type Blobs interface {
	Put(data []byte, contentType string) (*media.Blob, error)
	Release(blob *media.Blob) error
}

// LoginPrompt asks the user to sign in.
type LoginPrompt func()

// Service creates previews sharing one backend, cache and blob store.
type Service struct {
	backend Backend
	auth    Auth
	blobs   Blobs
	cache   *Cache

	mu     sync.RWMutex
	prompt LoginPrompt
}

func NewService(backend Backend, auth Auth, blobs Blobs, cache *Cache) *Service {
	return &Service{backend: backend, auth: auth, blobs: blobs, cache: cache}
}

// SetLoginPrompt installs the function toggles call while logged out.
func (s *Service) SetLoginPrompt(fn LoginPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = fn
}

func (s *Service) promptLogin() {
	s.mu.RLock()
	fn := s.prompt
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (s *Service) Cache() *Cache { return s.cache }

// New returns an unloaded preview. authorID is ignored for users.
func (s *Service) New(kind api.Kind, id, authorID string) *Preview {
	return &Preview{
		svc:  s,
		st:   State{Kind: kind, ID: id, AuthorID: authorID},
		busy: make(map[string]bool),
	}
}

// State is a copy of a preview.
type State struct {
	Kind         api.Kind
	ID           string
	AuthorID     string
	Liked        bool
	Bookmarked   bool
	Following    bool
	LikeCount    int
	CommentCount int
	Image        *media.Blob
	ImageErr     string
	Loaded       bool
}

// FollowTarget is the user a follow toggle acts on: the user itself for user
// previews, the author otherwise.
func (s State) FollowTarget() string {
	if s.Kind == api.KindUser {
		return s.ID
	}
	return s.AuthorID
}

type Preview struct {
	svc *Service

	mu  sync.Mutex
	st  State
	gen uint64

	// item changes only when the preview is pointed at another item;
	// toggles settle against it, not against gen.
	item uint64
	busy map[string]bool
}

func (p *Preview) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

// SetItem points the preview at another item. The previous image is
// released and loads still in flight are discarded.
func (p *Preview) SetItem(kind api.Kind, id, authorID string) {
	p.mu.Lock()
	if p.st.Kind == kind && p.st.ID == id {
		p.st.AuthorID = authorID
		p.mu.Unlock()
		return
	}
	old := p.st.Image
	p.gen++
	p.item++
	p.st = State{Kind: kind, ID: id, AuthorID: authorID}
	p.busy = make(map[string]bool)
	p.mu.Unlock()

	p.release(old)
}

// Release frees the image and discards loads in flight. The preview is
// marked unloaded so the next Load fetches it again. Toggles in flight still
// settle.
func (p *Preview) Release() {
	p.mu.Lock()
	old := p.st.Image
	p.st.Image = nil
	p.st.Loaded = false
	p.gen++
	p.mu.Unlock()

	p.release(old)
}

func (p *Preview) release(blob *media.Blob) {
	if blob == nil || p.svc.blobs == nil {
		return
	}
	if err := p.svc.blobs.Release(blob); err != nil {
		debuglog.Warnf("releasing preview image: %v", err)
	}
}

type loadResult struct {
	image        *media.Blob
	imageErr     string
	likeCount    *int
	commentCount *int
	liked        *bool
	bookmarked   *bool
	following    *bool
}

// Load fetches the auxiliary data concurrently. Personalized flags are only
// fetched while signed in. A missing image is not an error; other image
// failures are recorded in ImageErr. Errors other than image failures are
// joined into the returned error, and the fields they affect keep their
// previous values.
func (p *Preview) Load(ctx context.Context) error {
	p.mu.Lock()
	gen := p.gen
	st := p.st
	p.mu.Unlock()

	viewer := p.svc.auth.Viewer()
	var (
		res  loadResult
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	fail := func(field string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", field, err))
		mu.Unlock()
	}

	g.Go(func() error {
		res.image, res.imageErr = p.loadImage(ctx, st)
		return nil
	})

	switch st.Kind {
	case api.KindRecipe, api.KindBlog:
		g.Go(func() error {
			n, err := p.likeCount(ctx, st)
			if err != nil {
				fail(fieldLikeCount, err)
				return nil
			}
			res.likeCount = &n
			return nil
		})
		g.Go(func() error {
			n, err := p.commentCount(ctx, st)
			if err != nil {
				fail(fieldCommentCount, err)
				return nil
			}
			res.commentCount = &n
			return nil
		})
	case api.KindEvent:
		g.Go(func() error {
			n, err := p.commentCount(ctx, st)
			if err != nil {
				fail(fieldCommentCount, err)
				return nil
			}
			res.commentCount = &n
			return nil
		})
	}

	if !viewer.Anonymous() {
		if st.Kind == api.KindRecipe || st.Kind == api.KindBlog {
			g.Go(func() error {
				v, err := p.flag(ctx, st, viewer, fieldLiked)
				if err != nil {
					fail(fieldLiked, err)
					return nil
				}
				res.liked = &v
				return nil
			})
			g.Go(func() error {
				v, err := p.flag(ctx, st, viewer, fieldBookmarked)
				if err != nil {
					fail(fieldBookmarked, err)
					return nil
				}
				res.bookmarked = &v
				return nil
			})
		}
		if target := st.FollowTarget(); target != "" && target != viewer.ID {
			g.Go(func() error {
				v, err := p.flag(ctx, st, viewer, fieldFollowing)
				if err != nil {
					fail(fieldFollowing, err)
					return nil
				}
				res.following = &v
				return nil
			})
		}
	}

	_ = g.Wait()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.release(res.image)
		return ErrDiscarded
	}
	old := p.st.Image
	p.st.Image = res.image
	p.st.ImageErr = res.imageErr
	if res.likeCount != nil && !p.busy[fieldLiked] {
		p.st.LikeCount = *res.likeCount
	}
	if res.commentCount != nil {
		p.st.CommentCount = *res.commentCount
	}
	if viewer.Anonymous() {
		p.st.Liked, p.st.Bookmarked, p.st.Following = false, false, false
	}
	if res.liked != nil && !p.busy[fieldLiked] {
		p.st.Liked = *res.liked
	}
	if res.bookmarked != nil && !p.busy[fieldBookmarked] {
		p.st.Bookmarked = *res.bookmarked
	}
	if res.following != nil && !p.busy[fieldFollowing] {
		p.st.Following = *res.following
	}
	p.st.Loaded = true
	p.mu.Unlock()

	if old != res.image {
		p.release(old)
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		p.logger(st).Warnf("loading preview: %v", err)
		return err
	}
	return nil
}

// imageEntry caches an image fetch; missing records a 404.
type imageEntry struct {
	img     api.Image
	missing bool
}

func (p *Preview) loadImage(ctx context.Context, st State) (*media.Blob, string) {
	key := cacheKey(st.Kind, st.ID, fieldImage)
	entry, ok := cached[imageEntry](p.svc.cache, key)
	if !ok {
		var (
			img api.Image
			err error
		)
		if st.Kind == api.KindUser {
			img, err = p.svc.backend.ProfilePicture(ctx, st.ID)
		} else {
			img, err = p.svc.backend.Banner(ctx, st.Kind, st.ID)
		}
		switch {
		case api.IsNotFound(err):
			entry = imageEntry{missing: true}
		case err != nil:
			p.logger(st).Debugf("image fetch failed: %v", err)
			return nil, api.ErrorMessage(err, "Failed to load image")
		default:
			entry = imageEntry{img: img}
		}
		p.svc.cache.put(key, entry)
	}

	if entry.missing || len(entry.img.Data) == 0 || p.svc.blobs == nil {
		return nil, ""
	}
	blob, err := p.svc.blobs.Put(entry.img.Data, entry.img.ContentType)
	if err != nil {
		return nil, fmt.Sprintf("Failed to store image: %v", err)
	}
	return blob, ""
}

func (p *Preview) likeCount(ctx context.Context, st State) (int, error) {
	key := cacheKey(st.Kind, st.ID, fieldLikeCount)
	if n, ok := cached[int](p.svc.cache, key); ok {
		return n, nil
	}
	n, err := p.svc.backend.LikeCount(ctx, st.Kind, st.ID)
	if err != nil {
		return 0, err
	}
	p.svc.cache.put(key, n)
	return n, nil
}

// commentCount is the participant count for events.
func (p *Preview) commentCount(ctx context.Context, st State) (int, error) {
	key := cacheKey(st.Kind, st.ID, fieldCommentCount)
	if n, ok := cached[int](p.svc.cache, key); ok {
		return n, nil
	}

	probe := api.PageRequest{PageNumber: 1, PageSize: 1}
	var total int
	if st.Kind == api.KindEvent {
		resp, err := p.svc.backend.EventParticipants(ctx, st.ID, probe)
		if err != nil {
			return 0, err
		}
		total = resp.TotalCount
	} else {
		resp, err := p.svc.backend.Comments(ctx, st.Kind, st.ID, probe)
		if err != nil {
			return 0, err
		}
		total = resp.TotalCount
	}
	p.svc.cache.put(key, total)
	return total, nil
}

func (p *Preview) flag(ctx context.Context, st State, viewer session.Viewer, field string) (bool, error) {
	key := flagKey(st, viewer, field)
	if v, ok := cached[bool](p.svc.cache, key); ok {
		return v, nil
	}

	var (
		v   bool
		err error
	)
	switch field {
	case fieldLiked:
		v, err = p.svc.backend.IsLiked(ctx, st.Kind, st.ID)
	case fieldBookmarked:
		v, err = p.svc.backend.IsBookmarked(ctx, st.Kind, st.ID)
	case fieldFollowing:
		v, err = p.svc.backend.IsFollowing(ctx, st.FollowTarget())
	}
	if err != nil {
		return false, err
	}
	p.svc.cache.put(key, v)
	return v, nil
}

// flagKey scopes personalized flags to the viewer. Follow state belongs to
// the followed user, not the item.
func flagKey(st State, viewer session.Viewer, field string) string {
	if field == fieldFollowing {
		return cacheKey(api.KindUser, st.FollowTarget(), viewerField(field, viewer.ID))
	}
	return cacheKey(st.Kind, st.ID, viewerField(field, viewer.ID))
}

func (p *Preview) logger(st State) *debuglog.FieldLogger {
	return debuglog.WithFields(map[string]any{
		"component": "preview",
		"kind":      string(st.Kind),
		"id":        st.ID,
	})
}
