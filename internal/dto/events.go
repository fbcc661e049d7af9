package dto

import "time"

type FeedEventType string

const (
	PostCreated   FeedEventType = "post.created"
	PostDeleted   FeedEventType = "post.deleted"
	PostLiked     FeedEventType = "post.liked"
	PostUnliked   FeedEventType = "post.unliked"
	PostCommented FeedEventType = "post.commented"
)

type FeedEvent struct {
	Type       FeedEventType `json:"type"`
	PostID     string        `json:"post_id"`
	UserID     string        `json:"user_id"`
	OccurredAt time.Time     `json:"occurred_at"`
}
