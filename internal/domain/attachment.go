package domain

import "time"

// Attachment stores metadata for a file uploaded to a request.
type Attachment struct {
	ID         string
	RequestID  string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
