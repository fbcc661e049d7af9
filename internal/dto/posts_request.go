package dto

type CreatePostRequest struct {
	Caption  string `json:"caption" validate:"notblank,max=2200"`
	ImageURL string `json:"image_url" validate:"required,http_url"`
}
