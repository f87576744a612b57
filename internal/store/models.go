package store

import (
	"database/sql"
	"strings"
	"time"
)

// Post status values.
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Bio          string
	Avatar       sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the user's full name, falling back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Tag struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Post struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Image       sql.NullString
	Status      string
	PublishedAt sql.NullTime
	CategoryID  sql.NullInt64
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPublished reports whether the post is visible on public listings.
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Body      string
	CreatedAt time.Time
}

type Like struct {
	ID        int64
	PostID    int64
	UserID    int64
	CreatedAt time.Time
}

type Enquiry struct {
	ID        int64
	Name      string
	Email     string
	Contact   string
	Subject   string
	Message   string
	IpAddress sql.NullString
	UserAgent sql.NullString
	Country   sql.NullString
	CreatedAt time.Time
}

type Event struct {
	ID        int64
	Level     string
	Message   string
	Meta      string
	CreatedAt time.Time
}
