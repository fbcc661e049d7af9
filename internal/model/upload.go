package model

import "time"

type UploadJob struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Edited      bool      `json:"edited"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is the raw payload of an upload job as handed to an editing surface.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}
