// Package structs defines attachment domain models.
package structs

import "time"

type Attachment struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	ProjectID    string    `json:"project_id"`
	UploaderID   string    `json:"uploader_id"`
	UploaderName string    `json:"uploader_name"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	ObjectKey    string    `json:"-"`
	FileType     string    `json:"file_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateAttachmentRequest registers a file already hosted elsewhere.
type CreateAttachmentRequest struct {
	FileName string `json:"file_name" validate:"required,max=512"`
	FileURL  string `json:"file_url" validate:"required,url,max=2048"`
	FileType string `json:"file_type" validate:"max=255"`
	Size     int64  `json:"size" validate:"gte=0"`
}
