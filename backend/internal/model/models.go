package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. Credentials never leave the identity service.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the social identity of a user (1:1 with User).
type Profile struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// Article is an authored post. Author is resolved at read time.
type Article struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	Author      Profile   `json:"author"`
	TagList     []string  `json:"tag_list"` // Labels in creation order
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment belongs to exactly one article and one author.
type Comment struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"article_id"`
	Body      string    `json:"body"`
	Author    Profile   `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a label shared across articles; Slug is its identity.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// ArticlePatch carries a partial article update; nil fields are left unchanged.
type ArticlePatch struct {
	Title       *string
	Description *string
	Body        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Body == nil
}

// UserPatch carries a partial user/profile update. Password is the plain
// input; identity hashes it into PasswordHash, which is what backends store.
type UserPatch struct {
	Username     *string
	Email        *string
	Password     *string
	PasswordHash *string
	Bio          *string
	Image        *string
}

// ArticleFilter selects articles for listing. Empty fields do not filter.
type ArticleFilter struct {
	Author      string // author username
	TagSlug     string
	FavoritedBy string // username of the favoriting profile
	FollowerID  string // profile ID; restricts to authors it follows (feed mode)
	Offset      int
	Limit       int
}

// NewID returns a time-ordered UUIDv7 string, so ids sort with creation.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
