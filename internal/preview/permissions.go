package preview

import (
	"github.com/pders01/crumb/internal/session"
)

// Permissions gates the item menu.
type Permissions struct {
	CanEdit     bool
	CanDelete   bool
	CanFollow   bool
	CanUnfollow bool
	CanBan      bool
}

// Permit computes the menu for viewer on an item by authorID. Owners edit
// and delete; admins delete and ban others; signed-in non-owners follow or
// unfollow the author depending on following.
func Permit(viewer session.Viewer, authorID string, following bool) Permissions {
	if viewer.Anonymous() || authorID == "" {
		return Permissions{}
	}
	owner := viewer.ID == authorID
	admin := viewer.IsAdmin()
	return Permissions{
		CanEdit:     owner,
		CanDelete:   owner || admin,
		CanFollow:   !owner && !following,
		CanUnfollow: !owner && following,
		CanBan:      admin && !owner,
	}
}

// Permissions is Permit applied to the preview's current state. For user
// previews the user is its own author.
func (p *Preview) Permissions(viewer session.Viewer) Permissions {
	st := p.Snapshot()
	return Permit(viewer, st.FollowTarget(), st.Following)
}
