package tui

type View int

const (
	ViewRecipes View = iota
	ViewBlogs
	ViewEvents
	ViewFollowing
	ViewSearch
	ViewUser
	ViewReader
	ViewLogin
	ViewRegister
	ViewCompose
	ViewDeleteConfirm
	ViewHistory
)

// feedTabs are the top-level lists, in tab order.
var feedTabs = []View{ViewRecipes, ViewBlogs, ViewEvents, ViewFollowing}

func (v View) String() string {
	switch v {
	case ViewRecipes:
		return "recipes"
	case ViewBlogs:
		return "blogs"
	case ViewEvents:
		return "events"
	case ViewFollowing:
		return "following"
	case ViewSearch:
		return "search"
	case ViewUser:
		return "profile"
	case ViewReader:
		return "reader"
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewCompose:
		return "compose"
	case ViewDeleteConfirm:
		return "delete"
	case ViewHistory:
		return "history"
	default:
		return "unknown"
	}
}

// isFeedTab reports whether v is one of the top-level lists.
func (v View) isFeedTab() bool {
	for _, t := range feedTabs {
		if t == v {
			return true
		}
	}
	return false
}
