package dto

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Updates lists only the fields that were sent.
func (r UpdateProfileRequest) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if r.DisplayName != nil {
		updates["display_name"] = *r.DisplayName
	}
	if r.AvatarURL != nil {
		updates["avatar_url"] = *r.AvatarURL
	}
	return updates
}
