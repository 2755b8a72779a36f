package api

import "time"

// Kind names a content type and the collection segment used in its URLs.
type Kind string

const (
	KindRecipe Kind = "recipe"
	KindBlog   Kind = "blog"
	KindEvent  Kind = "event"
	KindUser   Kind = "user"
)

// Collection returns the plural path segment, e.g. "recipes".
func (k Kind) Collection() string {
	return string(k) + "s"
}

func (k Kind) String() string { return string(k) }

// ListResponse is the envelope every list endpoint returns.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Ingredient struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"max=20"`
}

type Recipe struct {
	ID              string       `json:"id"`
	AuthorID        string       `json:"authorId"`
	Author          *UserSummary `json:"author,omitempty"`
	Header          string       `json:"header"`
	BodyText        string       `json:"bodyText"`
	Ingredients     []Ingredient `json:"ingredients"`
	PreparationTime int          `json:"preparationTime"`
	Servings        int          `json:"servings"`
	Tags            []string     `json:"tags,omitempty"`
	CreatedDate     time.Time    `json:"createdDate"`
}

type Blog struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"authorId"`
	Author      *UserSummary `json:"author,omitempty"`
	Header      string       `json:"header"`
	BodyText    string       `json:"bodyText"`
	CreatedDate time.Time    `json:"createdDate"`
}

type Event struct {
	ID               string       `json:"id"`
	AuthorID         string       `json:"authorId"`
	Author           *UserSummary `json:"author,omitempty"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Location         string       `json:"location"`
	StartDate        time.Time    `json:"startDate"`
	EndDate          time.Time    `json:"endDate"`
	ParticipantCount int          `json:"participantCount"`
	CreationDate     time.Time    `json:"creationDate"`
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Role           string    `json:"role,omitempty"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	CreationDate   time.Time `json:"creationDate"`
}

type Comment struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	BodyText    string    `json:"bodyText"`
	CreatedDate time.Time `json:"createdDate"`
}

// Item keys, so every model can live in a pager.
func (r Recipe) Key() string  { return r.ID }
func (b Blog) Key() string    { return b.ID }
func (e Event) Key() string   { return e.ID }
func (u User) Key() string    { return u.ID }
func (c Comment) Key() string { return c.ID }

// Timestamps used when feeds are merged.
func (r Recipe) Timestamp() time.Time { return r.CreatedDate }
func (b Blog) Timestamp() time.Time   { return b.CreatedDate }
func (e Event) Timestamp() time.Time  { return e.CreationDate }
func (u User) Timestamp() time.Time   { return u.CreationDate }

// Role values the backend assigns.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
