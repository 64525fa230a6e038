package model

import "time"

type Resume struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	ExtractedText    *string   `json:"extracted_text"`
	StorageKey       string    `json:"storage_key,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
