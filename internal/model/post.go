package model

import (
	"strings"
	"time"
)

const PendingIDPrefix = "pending-"

type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Caption    string    `json:"caption"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	LikeCount  int64     `json:"like_count"`
	Comments   []Comment `json:"comments"`
	Pending    bool      `json:"pending"`
}

// IsPendingID reports whether id is a client placeholder that the backend has not confirmed yet.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, PendingIDPrefix)
}

// Clone returns a copy that shares no comment storage with p.
func (p Post) Clone() Post {
	if p.Comments != nil {
		comments := make([]Comment, len(p.Comments))
		copy(comments, p.Comments)
		p.Comments = comments
	}
	return p
}

// Before reports whether p sorts ahead of other in a feed: newest first, ties by id ascending.
func (p Post) Before(other Post) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.After(other.CreatedAt)
	}
	return p.ID < other.ID
}
