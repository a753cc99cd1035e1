package domain

import "time"

// Attachment stores metadata for an uploaded file. StorageKey locates the
// blob in the attachment store; deleting the attachment releases the blob.
type Attachment struct {
	ID         string
	TicketID   string
	FileName   string
	StorageKey string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
