package dto

type CreateCommentRequest struct {
	Text string `json:"text" validate:"notblank,max=1000"`
}
