// Package structs defines comment domain models.
package structs

import "time"

type Comment struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	ProjectID    string    `json:"project_id"`
	TaskID       *string   `json:"task_id,omitempty"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Body   string  `json:"body" validate:"required,min=1,max=5000"`
	TaskID *string `json:"task_id"`
}
