package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/pager"
	"github.com/pders01/crumb/internal/preview"
	"github.com/pders01/crumb/internal/storage"
)

// row is one list entry of any kind. The source model is kept for editing
// and for the reader document.
type row struct {
	kind     api.Kind
	id       string
	authorID string
	author   string
	title    string
	summary  string
	when     time.Time
	preview  *preview.Preview

	recipe *api.Recipe
	blog   *api.Blog
	event  *api.Event
	user   *api.User
}

func (r row) Key() string { return string(r.kind) + ":" + r.id }

func (r row) Title() string {
	title := r.title
	if title == "" {
		title = "(untitled)"
	}
	if r.preview == nil {
		return title
	}
	st := r.preview.Snapshot()
	var flags []string
	if st.Liked {
		flags = append(flags, LikedStyle.Render("♥"))
	}
	if st.Bookmarked {
		flags = append(flags, BookmarkedStyle.Render("★"))
	}
	if len(flags) == 0 {
		return title
	}
	return strings.Join(flags, " ") + " " + title
}

func (r row) Description() string {
	var parts []string
	if r.author != "" {
		parts = append(parts, "by "+r.author)
	}
	if r.summary != "" {
		parts = append(parts, r.summary)
	}
	if r.preview != nil {
		if st := r.preview.Snapshot(); st.Loaded {
			parts = append(parts, counts(r.kind, st)...)
		}
	}
	desc := renderMuted(strings.Join(parts, " • "))
	if !r.when.IsZero() {
		desc += TimeStyle.Render(" • " + r.when.Format("Jan 2, 15:04"))
	}
	return desc
}

func (r row) FilterValue() string { return r.title + " " + r.author }

func counts(kind api.Kind, st preview.State) []string {
	switch kind {
	case api.KindRecipe, api.KindBlog:
		return []string{fmt.Sprintf("♥ %d", st.LikeCount), fmt.Sprintf("💬 %d", st.CommentCount)}
	case api.KindEvent:
		return []string{fmt.Sprintf("%d going", st.CommentCount)}
	case api.KindUser:
		if st.Following {
			return []string{"following"}
		}
	}
	return nil
}

func authorName(u *api.UserSummary) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func newPreview(svc *preview.Service, kind api.Kind, id, authorID string) *preview.Preview {
	if svc == nil {
		return nil
	}
	return svc.New(kind, id, authorID)
}

func recipeRow(svc *preview.Service, r api.Recipe) row {
	summary := fmt.Sprintf("%d min", r.PreparationTime)
	if r.Servings > 0 {
		summary += fmt.Sprintf(" • serves %d", r.Servings)
	}
	return row{
		kind:     api.KindRecipe,
		id:       r.ID,
		authorID: r.AuthorID,
		author:   authorName(r.Author),
		title:    r.Header,
		summary:  summary,
		when:     r.CreatedDate,
		preview:  newPreview(svc, api.KindRecipe, r.ID, r.AuthorID),
		recipe:   &r,
	}
}

func blogRow(svc *preview.Service, b api.Blog) row {
	return row{
		kind:     api.KindBlog,
		id:       b.ID,
		authorID: b.AuthorID,
		author:   authorName(b.Author),
		title:    b.Header,
		summary:  excerpt(b.BodyText, 60),
		when:     b.CreatedDate,
		preview:  newPreview(svc, api.KindBlog, b.ID, b.AuthorID),
		blog:     &b,
	}
}

func eventRow(svc *preview.Service, e api.Event) row {
	return row{
		kind:     api.KindEvent,
		id:       e.ID,
		authorID: e.AuthorID,
		author:   authorName(e.Author),
		title:    e.Title,
		summary:  strings.TrimSpace(e.Location + " • " + e.StartDate.Format("Mon Jan 2 15:04")),
		when:     e.CreationDate,
		preview:  newPreview(svc, api.KindEvent, e.ID, e.AuthorID),
		event:    &e,
	}
}

func userRow(svc *preview.Service, u api.User) row {
	return row{
		kind:     api.KindUser,
		id:       u.ID,
		authorID: u.ID,
		title:    u.Username,
		summary:  countLabel(u.FollowersCount, "follower", "followers"),
		preview:  newPreview(svc, api.KindUser, u.ID, ""),
		user:     &u,
	}
}

// entryRow converts an item of the merged following feed.
func entryRow(svc *preview.Service, e pager.Entry) row {
	switch item := e.Item.(type) {
	case api.Recipe:
		return recipeRow(svc, item)
	case api.Blog:
		return blogRow(svc, item)
	case api.Event:
		return eventRow(svc, item)
	case api.User:
		return userRow(svc, item)
	default:
		return row{id: e.Key(), title: e.Key()}
	}
}

// historyRow rebuilds a row from a history entry when the item itself can
// no longer be fetched.
func historyRow(svc *preview.Service, e *storage.HistoryEntry) row {
	kind := api.Kind(e.Kind)
	return row{
		kind:    kind,
		id:      e.ItemID,
		author:  e.Author,
		title:   e.Title,
		summary: excerpt(e.Body, 60),
		when:    e.OpenedAt,
		preview: newPreview(svc, kind, e.ItemID, ""),
	}
}

// historyEntry is what opening r records.
func (r row) historyEntry() *storage.HistoryEntry {
	return &storage.HistoryEntry{
		ID:       storage.HistoryID(string(r.kind), r.id),
		Kind:     string(r.kind),
		ItemID:   r.id,
		Title:    r.title,
		Body:     r.body(),
		Author:   r.author,
		OpenedAt: time.Now(),
	}
}

func (r row) body() string {
	switch {
	case r.recipe != nil:
		return r.recipe.BodyText
	case r.blog != nil:
		return r.blog.BodyText
	case r.event != nil:
		return r.event.Description
	case r.user != nil:
		return r.user.Bio
	default:
		return r.summary
	}
}

// document is the markdown the reader renders for r.
func (r row) document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.title)

	byline := []string{}
	if r.author != "" {
		byline = append(byline, "by **"+r.author+"**")
	}
	if !r.when.IsZero() {
		byline = append(byline, r.when.Format(time.RFC1123))
	}
	if len(byline) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(byline, " · "))
	}

	switch {
	case r.recipe != nil:
		rec := r.recipe
		fmt.Fprintf(&b, "**Preparation:** %d min · **Servings:** %d\n\n", rec.PreparationTime, rec.Servings)
		if len(rec.Ingredients) > 0 {
			b.WriteString("## Ingredients\n\n")
			for _, ing := range rec.Ingredients {
				fmt.Fprintf(&b, "- %s\n", formatIngredient(ing))
			}
			b.WriteString("\n")
		}
		b.WriteString("## Instructions\n\n")
		b.WriteString(rec.BodyText)
		if len(rec.Tags) > 0 {
			fmt.Fprintf(&b, "\n\n---\n\nTags: %s", strings.Join(rec.Tags, ", "))
		}
	case r.event != nil:
		ev := r.event
		fmt.Fprintf(&b, "**When:** %s – %s\n\n", ev.StartDate.Format("Mon Jan 2 15:04"), ev.EndDate.Format("Mon Jan 2 15:04"))
		fmt.Fprintf(&b, "**Where:** %s\n\n", ev.Location)
		fmt.Fprintf(&b, "**Going:** %d\n\n---\n\n", ev.ParticipantCount)
		b.WriteString(ev.Description)
	case r.user != nil:
		u := r.user
		fmt.Fprintf(&b, "%d followers · %d following\n\n", u.FollowersCount, u.FollowingCount)
		b.WriteString(u.Bio)
	default:
		b.WriteString("---\n\n")
		b.WriteString(r.body())
	}
	return b.String()
}

func formatIngredient(ing api.Ingredient) string {
	qty := strconv.FormatFloat(ing.Quantity, 'f', -1, 64)
	if ing.Unit != "" {
		return fmt.Sprintf("%s %s %s", qty, ing.Unit, ing.Name)
	}
	return fmt.Sprintf("%s %s", qty, ing.Name)
}

// excerpt returns the first line of text cut to limit runes.
func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return truncateEnd(text, limit)
}
