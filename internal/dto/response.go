package dto

import "time"

type BasicResponse struct {
	Ok        bool      `json:"ok"`
	Details   string    `json:"details"`
	Field     string    `json:"field,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBasicResponse(ok bool, details string) BasicResponse {
	return BasicResponse{
		Ok:        ok,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse carries the offending field or error code so the UI can place the message inline.
func NewErrorResponse(details, field, code string) BasicResponse {
	resp := NewBasicResponse(false, details)
	resp.Field = field
	resp.Code = code
	return resp
}
