package dto

import "github.com/PhotoSocial/feed-client/internal/model"

type LikeResponse struct {
	PostID    string `json:"post_id"`
	LikeCount int64  `json:"like_count"`
}

type InteractionResponse struct {
	PostID string                 `json:"post_id"`
	State  model.InteractionState `json:"state"`
}

type UploadCommitResponse struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}
