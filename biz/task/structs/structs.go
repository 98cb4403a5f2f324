// Package structs defines task domain models.
package structs

import "time"

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

type Task struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	ProjectID    string    `json:"project_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	AssignedToID *string   `json:"assigned_to_id"`
	Status       Status    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AssignedTo reports whether the task is assigned to userID.
func (t *Task) AssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

type CreateTaskRequest struct {
	Title        string  `json:"title" validate:"required,min=1,max=255"`
	Description  string  `json:"description" validate:"max=5000"`
	AssignedToID *string `json:"assigned_to_id"`
	Status       Status  `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
}

// UpdateTaskRequest carries only the fields the caller wants to change.
// ClearAssignee unassigns the task.
type UpdateTaskRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	AssignedToID  *string `json:"assigned_to_id"`
	ClearAssignee bool    `json:"clear_assignee"`
	Status        *Status `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
}

// Fields lists the fields the request changes.
func (r *UpdateTaskRequest) Fields() []string {
	var out []string
	if r.Title != nil {
		out = append(out, "title")
	}
	if r.Description != nil {
		out = append(out, "description")
	}
	if r.AssignedToID != nil || r.ClearAssignee {
		out = append(out, "assigned_to_id")
	}
	if r.Status != nil {
		out = append(out, "status")
	}
	return out
}
